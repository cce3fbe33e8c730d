// Package diagnosis attaches a probable cause and a suggested fix to a
// failure message using an ordered list of keyword rules.
package diagnosis

import "strings"

// Rule maps messages containing Keyword to a cause and a fix.
// Keyword is matched against the lowercased message.
type Rule struct {
	Name    string // Short identifier, e.g. "not-visible"
	Keyword string // Lowercase substring that triggers the rule
	Cause   string // Probable cause shown to the user
	Fix     string // Suggested fix shown to the user
}

// Matches reports whether the lowercased message triggers the rule.
func (r Rule) Matches(lowered string) bool {
	return r.Keyword != "" && strings.Contains(lowered, r.Keyword)
}

// Diagnosis is the result of evaluating the rules against one message.
type Diagnosis struct {
	Cause string `json:"cause" yaml:"cause"`
	Fix   string `json:"fix" yaml:"fix"`
	Rule  string `json:"rule" yaml:"rule"` // Name of the matching rule, or FallbackRuleName
}

// FallbackRuleName names the diagnosis returned when no rule matches.
const FallbackRuleName = "fallback"

// DefaultRules is evaluated top-down; the first match wins.
var DefaultRules = []Rule{
	{
		Name:    "not-visible",
		Keyword: "not visible",
		Cause:   "The element is probably hidden or slow to render.",
		Fix:     "Add or increase an explicit wait for visibility (e.g. Wait Until Element Is Visible) before using the element.",
	},
	{
		Name:    "not-found",
		Keyword: "not found",
		Cause:   "The selector no longer matches any element on the page.",
		Fix:     "Check the locator or identifier against the current page markup and update it.",
	},
	{
		Name:    "click-intercepted",
		Keyword: "click intercepted",
		Cause:   "An overlay, spinner or popup is blocking the interaction.",
		Fix:     "Wait for the blocking element to disappear before interacting (e.g. Wait Until Element Is Not Visible).",
	},
	{
		Name:    "timeout",
		Keyword: "timeout",
		Cause:   "An expected condition did not happen within the allotted time.",
		Fix:     "Increase the timeout or review the condition that should have triggered it.",
	},
}

// Fallback is returned for messages no rule matches.
var Fallback = Diagnosis{
	Cause: "Unknown cause: no known failure pattern matched.",
	Fix:   "Inspect the full logs (log.html) and the screenshot of the failing step.",
	Rule:  FallbackRuleName,
}

// Diagnoser evaluates an ordered rule list.
type Diagnoser struct {
	rules []Rule
}

// New returns a Diagnoser over rules. With no rules it uses DefaultRules.
func New(rules ...Rule) *Diagnoser {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	copied := make([]Rule, len(rules))
	copy(copied, rules)
	return &Diagnoser{rules: copied}
}

// Rules returns a copy of the rule list in evaluation order.
func (d *Diagnoser) Rules() []Rule {
	out := make([]Rule, len(d.rules))
	copy(out, d.rules)
	return out
}

// Diagnose returns the diagnosis of the first rule matching message, or
// Fallback. It never fails.
func (d *Diagnoser) Diagnose(message string) Diagnosis {
	lowered := strings.ToLower(message)
	for _, r := range d.rules {
		if r.Matches(lowered) {
			return Diagnosis{Cause: r.Cause, Fix: r.Fix, Rule: r.Name}
		}
	}
	return Fallback
}

var defaultDiagnoser = New()

// Diagnose evaluates DefaultRules against message.
func Diagnose(message string) Diagnosis {
	return defaultDiagnoser.Diagnose(message)
}
