package services

import (
	"regexp"
	"strings"
	"unicode"
)

// BannedWords are matched case-insensitively on word boundaries.
var BannedWords = []string{
	"fuck", "fucking", "fucker", "shit", "shitty", "bullshit",
	"ass", "asshole", "bastard", "bitch", "cunt",
	"nigger", "nigga", "chink", "spic", "kike", "faggot", "fag",
	"retard", "retarded", "tranny",
	"porn", "porno", "nude", "nudes",
	"spam", "scam", "scammer", "phishing", "malware",
}

// Rejection reasons returned by ContentFilter.Check.
const (
	ReasonInappropriateLanguage = "inappropriate_language"
	ReasonURLNotAllowed         = "url_not_allowed"
	ReasonContactInfo           = "contact_info_not_allowed"
	ReasonSpam                  = "spam_detected"
	ReasonExcessiveCaps         = "excessive_caps"
)

var rejectionMessages = map[string]string{
	ReasonInappropriateLanguage: "Your comment contains inappropriate language.",
	ReasonURLNotAllowed:         "URLs and web links are not allowed.",
	ReasonContactInfo:           "Contact information is not allowed.",
	ReasonSpam:                  "Your comment appears to be spam.",
	ReasonExcessiveCaps:         "Please avoid using excessive capital letters.",
}

// ContentFilter screens comment and reply text. Patterns are compiled once
// and the filter is safe for concurrent use.
type ContentFilter struct {
	bannedWords    []*regexp.Regexp
	urlPattern     *regexp.Regexp
	emailPattern   *regexp.Regexp
	phonePattern   *regexp.Regexp
	allCapsPattern *regexp.Regexp
}

func NewContentFilter() *ContentFilter {
	f := &ContentFilter{
		bannedWords:    make([]*regexp.Regexp, 0, len(BannedWords)),
		urlPattern:     regexp.MustCompile(`(?i)(https?://\S+|www\.\S+\.\S+)`),
		emailPattern:   regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`),
		phonePattern:   regexp.MustCompile(`\d{3}[-.\s]?\d{3}[-.\s]?\d{4}|\(\d{3}\)\s*\d{3}[-.\s]?\d{4}`),
		allCapsPattern: regexp.MustCompile(`[A-Z]{5,}`),
	}
	for _, word := range BannedWords {
		f.bannedWords = append(f.bannedWords, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(word)+`\b`))
	}
	return f
}

// Check returns ok=false and a reason code when text breaks a rule.
func (f *ContentFilter) Check(text string) (ok bool, reason string) {
	if text == "" {
		return true, ""
	}
	for _, re := range f.bannedWords {
		if re.MatchString(text) {
			return false, ReasonInappropriateLanguage
		}
	}
	if f.urlPattern.MatchString(text) {
		return false, ReasonURLNotAllowed
	}
	if f.emailPattern.MatchString(text) || f.phonePattern.MatchString(text) {
		return false, ReasonContactInfo
	}
	if hasRepeatedRun(text, 4) {
		return false, ReasonSpam
	}
	if len(f.allCapsPattern.FindAllString(text, -1)) > 2 {
		return false, ReasonExcessiveCaps
	}
	return true, ""
}

// hasRepeatedRun reports whether a letter or one of "!?." repeats n or more
// times in a row, ignoring case.
func hasRepeatedRun(text string, n int) bool {
	var prev rune
	run := 0
	for _, r := range strings.ToLower(text) {
		if r == prev && (unicode.IsLetter(r) || strings.ContainsRune("!?.", r)) {
			run++
			if run >= n {
				return true
			}
			continue
		}
		prev, run = r, 1
	}
	return false
}

// GetRejectionMessage turns a reason code into user-facing text.
func GetRejectionMessage(reason string) string {
	if msg, ok := rejectionMessages[reason]; ok {
		return msg
	}
	return "Your comment does not meet our content guidelines."
}
