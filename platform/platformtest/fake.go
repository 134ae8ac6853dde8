// Package platformtest provides an in-memory platform.Gateway that records
// every call.
package platformtest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"support-bot/platform"
)

var ErrInjected = errors.New("injected failure")

// Sent is one delivered message.
type Sent struct {
	Ref     platform.MessageRef
	UserID  string // set for DMs
	Message platform.Message
}

// Fake is a recording gateway. Zero value is not usable; call New.
type Fake struct {
	mu sync.Mutex

	nextID int

	DMs       []Sent
	Channel   []Sent
	Edits     map[platform.MessageRef]platform.Message
	Deleted   []platform.MessageRef
	DeletedDM []string
	Threads   map[string]string // thread id -> name
	Closed    []string
	Removed   []string

	Users   map[string]platform.User
	Members map[string]platform.Member // keyed by user id
	Online  int
	// OnlineErr makes OnlineSupportCount fail.
	OnlineErr error

	// FailDM makes DMs to these users fail. FailDMAfter lets the first n DMs
	// through before failing.
	FailDM      map[string]bool
	FailDMAfter map[string]int
	FailSend    map[string]bool // channel ids
	dmCount     map[string]int

	existing map[platform.MessageRef]bool
}

func New() *Fake {
	return &Fake{
		Edits:       make(map[platform.MessageRef]platform.Message),
		Threads:     make(map[string]string),
		Users:       make(map[string]platform.User),
		Members:     make(map[string]platform.Member),
		FailDM:      make(map[string]bool),
		FailDMAfter: make(map[string]int),
		FailSend:    make(map[string]bool),
		dmCount:     make(map[string]int),
		existing:    make(map[platform.MessageRef]bool),
	}
}

func (f *Fake) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *Fake) SendDM(_ context.Context, userID string, msg platform.Message) (platform.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailDM[userID] {
		return platform.MessageRef{}, ErrInjected
	}
	if limit, ok := f.FailDMAfter[userID]; ok && f.dmCount[userID] >= limit {
		return platform.MessageRef{}, ErrInjected
	}
	f.dmCount[userID]++
	ref := platform.MessageRef{ChannelID: "dm-" + userID, MessageID: f.id("dm")}
	f.existing[ref] = true
	f.DMs = append(f.DMs, Sent{Ref: ref, UserID: userID, Message: msg})
	return ref, nil
}

func (f *Fake) DeleteDM(_ context.Context, userID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if messageID == "" {
		return nil
	}
	f.DeletedDM = append(f.DeletedDM, messageID)
	delete(f.existing, platform.MessageRef{ChannelID: "dm-" + userID, MessageID: messageID})
	return nil
}

func (f *Fake) Send(_ context.Context, channelID string, msg platform.Message) (platform.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailSend[channelID] {
		return platform.MessageRef{}, ErrInjected
	}
	ref := platform.MessageRef{ChannelID: channelID, MessageID: f.id("msg")}
	f.existing[ref] = true
	f.Channel = append(f.Channel, Sent{Ref: ref, Message: msg})
	return ref, nil
}

// Edit fails for messages the fake never sent, mirroring a deleted message.
func (f *Fake) Edit(_ context.Context, ref platform.MessageRef, msg platform.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.existing[ref] {
		return ErrInjected
	}
	f.Edits[ref] = msg
	return nil
}

func (f *Fake) Delete(_ context.Context, ref platform.MessageRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Deleted = append(f.Deleted, ref)
	delete(f.existing, ref)
	return nil
}

func (f *Fake) CreateThread(_ context.Context, channelID, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailSend[channelID] {
		return "", ErrInjected
	}
	id := f.id("thread")
	f.Threads[id] = name
	return id, nil
}

func (f *Fake) CloseThread(_ context.Context, threadID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = append(f.Closed, threadID)
	return nil
}

func (f *Fake) DeleteChannel(_ context.Context, channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Removed = append(f.Removed, channelID)
	return nil
}

func (f *Fake) FetchUser(_ context.Context, userID string) (platform.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.Users[userID]; ok {
		return u, nil
	}
	return platform.User{ID: userID, Tag: "user#" + userID}, nil
}

func (f *Fake) OnlineSupportCount(_ context.Context, _ string, _ []string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.OnlineErr != nil {
		return 0, f.OnlineErr
	}
	return f.Online, nil
}

func (f *Fake) MemberPermissions(_ context.Context, _ string, userID string) (platform.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.Members[userID]; ok {
		return m, nil
	}
	return platform.Member{}, ErrInjected
}

// DMsTo returns the DMs delivered to userID in order.
func (f *Fake) DMsTo(userID string) []platform.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []platform.Message
	for _, s := range f.DMs {
		if s.UserID == userID {
			out = append(out, s.Message)
		}
	}
	return out
}

// SentTo returns the messages posted to channelID in order.
func (f *Fake) SentTo(channelID string) []Sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Sent
	for _, s := range f.Channel {
		if s.Ref.ChannelID == channelID {
			out = append(out, s)
		}
	}
	return out
}

// Reset forgets recorded traffic but keeps configuration.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DMs = nil
	f.Channel = nil
	f.Edits = make(map[platform.MessageRef]platform.Message)
	f.Deleted = nil
	f.DeletedDM = nil
	f.Closed = nil
	f.Removed = nil
}
