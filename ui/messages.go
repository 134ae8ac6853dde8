// Package ui renders tickets and prompts into Discord payloads. Nothing here
// touches state.
package ui

import "strings"

const (
	LangArabic  = "ar"
	LangEnglish = "en"
)

// Locale maps any language value to a supported one, defaulting to Arabic.
func Locale(lang string) string {
	switch lang {
	case LangArabic, LangEnglish:
		return lang
	default:
		return LangArabic
	}
}

// Messages is the user-facing text of one locale.
type Messages struct {
	RateLimited     string
	SetupRequired   string
	Blacklisted     string
	TempBlacklisted string
	Blocked         string

	TicketPromptTitle   string
	TicketPromptBody    string
	ChooseLanguageTitle string
	ChooseLanguageBody  string
	AskReason           string
	InvalidChoice       string
	InvalidRating       string
	SetupExpired        string
	NotActive           string

	AlreadyOpen           string
	Waiting               string
	TicketOpened          string
	AwaitingTitle         string
	AwaitingBody          string
	NoSupportAvailable    string
	NoSupportAvailableEta string
	SupportAvailableOne   string
	SupportAvailableMany  string
	IdleClosed            string
	ClaimNoticeAdmin      string
	ClaimNoticeSupport    string

	ClosedEmbedTitle        string
	ClosedEmbedThanks       string
	ClosedEmbedDurationUnit string
	ClosedEmbedTicketID     string
	ClosedEmbedIssueSolved  string
	ClosedEmbedComplaint    string
	ClosedEmbedRate         string
	ClosedEmbedRateValue    string
	CloseReason             string

	AskFeedback string
	Thanks      string
}

var english = &Messages{
	RateLimited:     "You're sending messages too quickly. Please wait a minute and try again.",
	SetupRequired:   "Support isn't set up yet. Please try again later.",
	Blacklisted:     "You are not allowed to open support tickets.",
	TempBlacklisted: "You are temporarily blocked from opening tickets. Try again in {duration}.",
	Blocked:         "You have reached the daily ticket limit. Please try again tomorrow.",

	TicketPromptTitle:   "Welcome to Support",
	TicketPromptBody:    "Let's get your ticket started. It only takes a couple of quick steps.",
	ChooseLanguageTitle: "Choose your language",
	ChooseLanguageBody:  "Pick the language you would like to be helped in.",
	AskReason:           "Please describe your issue in a single message.",
	InvalidChoice:       "Please use the buttons provided.",
	InvalidRating:       "Please send a number from 1 to 5.",
	SetupExpired:        "Your ticket setup expired. Send a new message to start again.",
	NotActive:           "Not active.",

	AlreadyOpen:           "You already have an open ticket.",
	Waiting:               "Our team is handling a lot of tickets right now. Thank you for your patience.",
	TicketOpened:          "Your ticket is open. Reply here and our team will see your messages.",
	AwaitingTitle:         "Waiting for support",
	AwaitingBody:          "A team member will reply soon.\nEstimated wait: **{eta}**",
	NoSupportAvailable:    "No support members are online right now.",
	NoSupportAvailableEta: "Expected response time: {eta}.",
	SupportAvailableOne:   "One support member is online and will be with you shortly.",
	SupportAvailableMany:  "Several support members are online and will be with you shortly.",
	IdleClosed:            "Your ticket was closed because there was no activity.",
	ClaimNoticeAdmin:      "An administrator has taken your ticket and will reply here.",
	ClaimNoticeSupport:    "A support member has taken your ticket and will reply here.",

	ClosedEmbedTitle:        "Ticket Closed",
	ClosedEmbedThanks:       "Thank you for contacting support.",
	ClosedEmbedDurationUnit: "minute(s)",
	ClosedEmbedTicketID:     "Ticket ID",
	ClosedEmbedIssueSolved:  "Issue solved in",
	ClosedEmbedComplaint:    "For any complaint, use the ticket ID",
	ClosedEmbedRate:         "Please rate the support",
	ClosedEmbedRateValue:    "From 1 to 5",
	CloseReason:             "Close Reason",

	AskFeedback: "Sorry to hear that. Tell us in one message what went wrong and how we can improve.",
	Thanks:      "Thanks.",
}

var arabic = &Messages{
	RateLimited:     "أنت ترسل الرسائل بسرعة كبيرة. يرجى الانتظار دقيقة ثم المحاولة مرة أخرى.",
	SetupRequired:   "لم يتم إعداد الدعم بعد. يرجى المحاولة لاحقاً.",
	Blacklisted:     "غير مسموح لك بفتح تذاكر دعم.",
	TempBlacklisted: "أنت محظور مؤقتاً من فتح التذاكر. حاول مرة أخرى بعد {duration}.",
	Blocked:         "لقد وصلت إلى الحد اليومي للتذاكر. يرجى المحاولة غداً.",

	TicketPromptTitle:   "مرحباً بك في الدعم الفني",
	TicketPromptBody:    "لنبدأ بفتح تذكرتك. الأمر يحتاج بضع خطوات سريعة فقط.",
	ChooseLanguageTitle: "اختر لغتك",
	ChooseLanguageBody:  "اختر اللغة التي تفضل أن نساعدك بها.",
	AskReason:           "يرجى وصف مشكلتك في رسالة واحدة.",
	InvalidChoice:       "يرجى استخدام الأزرار المتاحة.",
	InvalidRating:       "يرجى إرسال رقم من 1 إلى 5.",
	SetupExpired:        "انتهت جلسة إعداد التذكرة. أرسل رسالة جديدة للبدء من جديد.",
	NotActive:           "غير نشط.",

	AlreadyOpen:           "لديك تذكرة مفتوحة بالفعل.",
	Waiting:               "فريقنا يتعامل مع عدد كبير من التذاكر حالياً. شكراً لصبرك.",
	TicketOpened:          "تم فتح تذكرتك. اكتب هنا وسيرى فريقنا رسائلك.",
	AwaitingTitle:         "بانتظار الدعم",
	AwaitingBody:          "سيرد عليك أحد أعضاء الفريق قريباً.\nالوقت المتوقع: **{eta}**",
	NoSupportAvailable:    "لا يوجد أعضاء دعم متصلون حالياً.",
	NoSupportAvailableEta: "وقت الرد المتوقع: {eta}.",
	SupportAvailableOne:   "يوجد عضو دعم واحد متصل وسيكون معك قريباً.",
	SupportAvailableMany:  "يوجد عدة أعضاء دعم متصلين وسيكونون معك قريباً.",
	IdleClosed:            "تم إغلاق تذكرتك بسبب عدم النشاط.",
	ClaimNoticeAdmin:      "تولى أحد المشرفين تذكرتك وسيرد عليك هنا.",
	ClaimNoticeSupport:    "تولى أحد أعضاء الدعم تذكرتك وسيرد عليك هنا.",

	ClosedEmbedTitle:        "تم إغلاق التذكرة",
	ClosedEmbedThanks:       "شكراً لتواصلك مع الدعم.",
	ClosedEmbedDurationUnit: "دقيقة",
	ClosedEmbedTicketID:     "رقم التذكرة",
	ClosedEmbedIssueSolved:  "تم حل المشكلة خلال",
	ClosedEmbedComplaint:    "لأي شكوى استخدم رقم التذكرة",
	ClosedEmbedRate:         "يرجى تقييم الدعم",
	ClosedEmbedRateValue:    "من 1 إلى 5",
	CloseReason:             "سبب الإغلاق",

	AskFeedback: "نأسف لذلك. أخبرنا في رسالة واحدة بما حدث وكيف يمكننا التحسن.",
	Thanks:      "شكراً لك.",
}

// Text returns the messages of a locale; unknown locales get Arabic.
func Text(locale string) *Messages {
	if Locale(locale) == LangEnglish {
		return english
	}
	return arabic
}

// Fill replaces {key} placeholders in s.
func Fill(s string, pairs ...string) string {
	return strings.NewReplacer(withBraces(pairs)...).Replace(s)
}

func withBraces(pairs []string) []string {
	out := make([]string, len(pairs))
	for i, p := range pairs {
		if i%2 == 0 {
			p = "{" + p + "}"
		}
		out[i] = p
	}
	return out
}
