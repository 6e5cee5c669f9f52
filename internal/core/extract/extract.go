// Package extract turns free-text chat turns into structured action
// candidates using a fixed, ordered rule table. Extraction is a pure
// function of (text, sender): no state, no I/O, no learned model.
package extract

import (
	"regexp"
	"strings"

	"github.com/hay-kot/docket/internal/core/action"
)

// Confidence is the extraction confidence attached to every candidate.
// Currently constant; reserved for future scoring.
const Confidence = 0.8

var (
	panRE = regexp.MustCompile(`[A-Z]{5}[0-9]{4}[A-Z]`)
	urlRE = regexp.MustCompile(`https?://(?:[a-zA-Z0-9]|[$-_@.&+]|[!*(),]|%[0-9a-fA-F]{2})+`)
)

// categoryRule binds a task type to its keyword patterns. Table order
// is significant: the first matching category wins, so more specific
// document types sit above generic ones like photo.
type categoryRule struct {
	taskType action.TaskType
	patterns []*regexp.Regexp
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(e))
	}
	return out
}

var categoryRules = []categoryRule{
	{action.TaskPANCard, compileAll(
		`pan\s+card`, `pan\s+number`, `permanent\s+account\s+number`,
		`pan\s+document`, `pan\s+copy`,
	)},
	{action.TaskAadhaar, compileAll(
		`aadhaar`, `aadhar`, `uid`, `unique\s+identification`,
		`aadhaar\s+card`, `aadhaar\s+number`,
	)},
	{action.TaskBankStatement, compileAll(
		`bank\s+statement`, `bank\s+statement\s+pdf`, `bank\s+details`,
		`account\s+statement`, `banking\s+statement`,
	)},
	{action.TaskIncomeProof, compileAll(
		`income\s+proof`, `salary\s+certificate`, `income\s+certificate`,
		`pay\s+slip`, `salary\s+slip`, `income\s+document`,
	)},
	{action.TaskAddressProof, compileAll(
		`address\s+proof`, `address\s+document`, `residence\s+proof`,
		`utility\s+bill`, `address\s+certificate`,
	)},
	{action.TaskPhoto, compileAll(
		`photo`, `photograph`, `picture`, `passport\s+size\s+photo`,
		`profile\s+picture`, `headshot`,
	)},
	{action.TaskSignature, compileAll(
		`signature`, `sign`, `digital\s+signature`, `wet\s+signature`,
	)},
}

// Verb keywords matched by plain substring containment, not word
// boundaries. "here is"/"here are" count as completion phrases.
var (
	requestVerbs    = []string{"send", "provide", "upload", "share", "submit", "give", "furnish"}
	completionVerbs = []string{"received", "collected", "got", "obtained", "submitted", "uploaded", "here is", "here are"}
	modifyVerbs     = []string{"update", "change", "modify", "revise", "correct"}
)

var genericDocRE = compileAll(`document`, `paper`, `certificate`, `proof`, `copy`)

// deliverableRule is scanned in table order; first match wins.
type deliverableRule struct {
	deliverable action.DeliverableType
	patterns    []*regexp.Regexp
}

var deliverableRules = []deliverableRule{
	{action.DeliverablePhoto, compileAll(`photo`, `image`, `picture`, `photograph`)},
	{action.DeliverablePDF, compileAll(`pdf`, `document`, `file`)},
	{action.DeliverableNumber, compileAll(`number`, `no\.`, `#`)},
	{action.DeliverableURL, compileAll(`url`, `link`, `http`, `www`)},
	{action.DeliverableAttachment, compileAll(`attachment`, `attached`, `file`)},
}

var taskTemplates = map[action.TaskType]string{
	action.TaskPANCard:       "Provide PAN card document",
	action.TaskAadhaar:       "Provide Aadhaar card document",
	action.TaskBankStatement: "Provide bank statement",
	action.TaskIncomeProof:   "Provide income proof document",
	action.TaskAddressProof:  "Provide address proof document",
	action.TaskPhoto:         "Provide photograph",
	action.TaskSignature:     "Provide signature",
	action.TaskOther:         "Provide requested document",
}

// Extractor classifies message text into zero or one action candidate.
//
// Only the first matched category per message becomes a candidate:
// multiple distinct document mentions in one message are not split.
type Extractor struct {
	requester string // the party that asks for documents
	receiver  string // the party that supplies them
}

// New creates an Extractor for the given two party roles. The sender
// role is inverted to derive the owner of the resulting task.
func New(requester, receiver string) *Extractor {
	return &Extractor{requester: requester, receiver: receiver}
}

// Extract parses a single message. The boolean reports whether a
// candidate was found.
func (e *Extractor) Extract(text, sender string) (action.Candidate, bool) {
	lower := strings.ToLower(text)

	isRequest := containsAny(lower, requestVerbs)
	isCompletion := containsAny(lower, completionVerbs)
	isModification := containsAny(lower, modifyVerbs)

	// A PAN-shaped token next to a copula reads as "here is the value",
	// which closes the item even without a completion verb.
	if panRE.MatchString(strings.ToUpper(text)) &&
		(strings.Contains(lower, "is") || strings.Contains(lower, "are")) {
		isCompletion = true
	}

	hint := action.HintNone
	switch {
	case isCompletion:
		hint = action.HintClosed
	case isModification:
		hint = action.HintModify
	}

	for _, rule := range categoryRules {
		for _, p := range rule.patterns {
			if p.MatchString(lower) {
				return e.candidate(text, rule.taskType, sender, hint), true
			}
		}
	}

	// Fallback: a request or completion about some generic document
	// (or a bare URL) still yields a trackable item.
	if isRequest || isCompletion {
		hasURL := urlRE.MatchString(text)
		if hasURL || matchesAny(lower, genericDocRE) {
			return e.candidate(text, action.TaskOther, sender, hint), true
		}
	}

	return action.Candidate{}, false
}

func (e *Extractor) candidate(text string, taskType action.TaskType, sender string, hint action.StatusHint) action.Candidate {
	var meta action.Metadata

	if pan := panRE.FindString(strings.ToUpper(text)); pan != "" {
		meta.PANNumber = pan
	}
	if urls := urlRE.FindAllString(text, -1); len(urls) > 0 {
		meta.URLs = urls
	}

	lower := strings.ToLower(text)
	if len(meta.URLs) > 0 {
		// URL presence overrides keyword-based deliverable detection.
		meta.DeliverableType = action.DeliverableURL
	} else {
		for _, rule := range deliverableRules {
			if matchesAny(lower, rule.patterns) {
				meta.DeliverableType = rule.deliverable
				break
			}
		}
	}

	owner := e.requester
	if sender == e.requester {
		owner = e.receiver
	}

	return action.Candidate{
		TaskText:   taskText(text, taskType),
		TaskType:   taskType,
		Owner:      owner,
		StatusHint: hint,
		Metadata:   meta,
		Confidence: Confidence,
	}
}

// taskText renders the per-category template. The suffix is chosen by
// re-scanning the raw text, so it can diverge from the detected
// deliverable type; that divergence is intentional and preserved.
func taskText(original string, taskType action.TaskType) string {
	base, ok := taskTemplates[taskType]
	if !ok {
		base = taskTemplates[action.TaskOther]
	}

	lower := strings.ToLower(original)
	switch {
	case strings.Contains(lower, "photo"):
		base += " (photo required)"
	case strings.Contains(lower, "pdf"):
		base += " (PDF required)"
	case strings.Contains(lower, "number"):
		base += " (number required)"
	}

	return base
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func matchesAny(s string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
