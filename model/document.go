package model

// Document is the whole persisted state, stored as one JSON file.
type Document struct {
	Tickets          map[string]map[string]*Ticket `json:"tickets"`
	Guilds           map[string]*GuildMeta         `json:"guilds"`
	Blacklist        map[string]*Blacklist         `json:"blacklist"`
	PrimaryGuildID   string                        `json:"primaryGuildId"`
	NextTicketNumber int                           `json:"nextTicketNumber"`
}

// GuildMeta holds per-guild bookkeeping and the stored config override.
type GuildMeta struct {
	RemovedAt    *int64                   `json:"removedAt"`
	SupportStats map[string]*SupportStats `json:"supportStats"`
	Config       *GuildConfigPatch        `json:"config,omitempty"`
}

// SupportStats counts what one staff member has done in a guild.
type SupportStats struct {
	Closed  int `json:"closed"`
	Claimed int `json:"claimed"`
}

// Ban is a permanent blacklist entry.
type Ban struct {
	Reason string `json:"reason"`
	By     string `json:"by"`
	At     int64  `json:"at"`
}

// TempBan is a blacklist entry that lapses at ExpiresAt.
type TempBan struct {
	Reason    string `json:"reason"`
	By        string `json:"by"`
	At        int64  `json:"at"`
	ExpiresAt int64  `json:"expiresAt"`
}

// Blacklist is the per-guild deny list. A user is in at most one of the maps.
type Blacklist struct {
	Permanent map[string]Ban     `json:"permanent"`
	Temporary map[string]TempBan `json:"temporary"`
}

// NewDocument returns the empty document used for a missing or unreadable file.
func NewDocument() *Document {
	return &Document{
		Tickets:          make(map[string]map[string]*Ticket),
		Guilds:           make(map[string]*GuildMeta),
		Blacklist:        make(map[string]*Blacklist),
		NextTicketNumber: 1,
	}
}

// Normalize fills the top-level maps a hand-edited or older file may lack.
func (d *Document) Normalize() {
	if d.Tickets == nil {
		d.Tickets = make(map[string]map[string]*Ticket)
	}
	if d.Guilds == nil {
		d.Guilds = make(map[string]*GuildMeta)
	}
	if d.Blacklist == nil {
		d.Blacklist = make(map[string]*Blacklist)
	}
	if d.NextTicketNumber < 1 {
		d.NextTicketNumber = 1
	}
}

// EnsureGuild materializes every shard structure for guildID. Safe to call repeatedly.
func (d *Document) EnsureGuild(guildID string) {
	d.Normalize()
	if d.Tickets[guildID] == nil {
		d.Tickets[guildID] = make(map[string]*Ticket)
	}
	meta := d.Guilds[guildID]
	if meta == nil {
		meta = &GuildMeta{}
		d.Guilds[guildID] = meta
	}
	if meta.SupportStats == nil {
		meta.SupportStats = make(map[string]*SupportStats)
	}
	bl := d.Blacklist[guildID]
	if bl == nil {
		bl = &Blacklist{}
		d.Blacklist[guildID] = bl
	}
	if bl.Permanent == nil {
		bl.Permanent = make(map[string]Ban)
	}
	if bl.Temporary == nil {
		bl.Temporary = make(map[string]TempBan)
	}
}

// AllocateTicketNumber hands out the next sequential ticket number.
func (d *Document) AllocateTicketNumber() int {
	if d.NextTicketNumber < 1 {
		d.NextTicketNumber = 1
	}
	n := d.NextTicketNumber
	d.NextTicketNumber = n + 1
	return n
}

// FindTicketByID searches one guild, or every guild when guildID is empty.
func (d *Document) FindTicketByID(guildID, ticketID string) (*Ticket, string) {
	for gid, tickets := range d.Tickets {
		if guildID != "" && gid != guildID {
			continue
		}
		for _, t := range tickets {
			if t != nil && t.ID == ticketID {
				return t, gid
			}
		}
	}
	return nil, ""
}

// FindTicketByThread returns the ticket whose staff thread is threadID.
func (d *Document) FindTicketByThread(guildID, threadID string) *Ticket {
	for _, t := range d.Tickets[guildID] {
		if t != nil && t.ThreadID != "" && t.ThreadID == threadID {
			return t
		}
	}
	return nil
}

// OpenTicketCount counts open tickets in a guild.
func (d *Document) OpenTicketCount(guildID string) int {
	n := 0
	for _, t := range d.Tickets[guildID] {
		if t.IsOpen() {
			n++
		}
	}
	return n
}

// Stats returns the mutable stats record for a staff member, creating it.
func (d *Document) Stats(guildID, userID string) *SupportStats {
	d.EnsureGuild(guildID)
	stats := d.Guilds[guildID].SupportStats[userID]
	if stats == nil {
		stats = &SupportStats{}
		d.Guilds[guildID].SupportStats[userID] = stats
	}
	return stats
}
