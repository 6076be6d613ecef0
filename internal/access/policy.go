package access

import (
	"fmt"
	"strings"
)

const (
	pathSeparator = "/"
	varOpen       = "{"
	varClose      = "}"

	catchAllPattern = "/**"
)

// Policy is an ordered rule table. The first matching rule decides; requests
// that match nothing fall through to a terminal authenticated-only rule.
// A Policy is immutable after construction and safe for concurrent use.
type Policy struct {
	rules    []Rule
	terminal Rule
}

// NewPolicy compiles rules in the order given. Order is significant and is
// never changed.
func NewPolicy(rules ...Rule) (*Policy, error) {
	compiled := make([]Rule, 0, len(rules))
	for _, r := range rules {
		c, err := compileRule(r)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, c)
	}

	return &Policy{
		rules: compiled,
		terminal: Rule{
			Method:      AnyMethod,
			Pattern:     catchAllPattern,
			Requirement: Authenticated(),
		},
	}, nil
}

// MustPolicy is NewPolicy for static tables; it panics on a malformed rule.
func MustPolicy(rules ...Rule) *Policy {
	p, err := NewPolicy(rules...)
	if err != nil {
		panic(fmt.Sprintf(errMustPolicyPanicFmt, err))
	}
	return p
}

// Rules returns a copy of the explicit rules in evaluation order.
func (p *Policy) Rules() []Rule {
	out := make([]Rule, len(p.rules))
	copy(out, p.rules)
	return out
}

// Match returns the first rule matching method and path. When nothing
// matches it returns the terminal catch-all rule and false.
func (p *Policy) Match(method, path string) (Rule, bool) {
	reqSegments := splitPath(path)
	for _, r := range p.rules {
		if r.matches(method, reqSegments) {
			return r, true
		}
	}
	return p.terminal, false
}

// Evaluate decides whether the caller may proceed. It never fails.
func (p *Policy) Evaluate(method, path string, id *Identity) Verdict {
	rule, _ := p.Match(method, path)
	return rule.Requirement.decide(id)
}

func (req Requirement) decide(id *Identity) Verdict {
	switch req.Kind {
	case KindPublic:
		return Allow
	case KindRole:
		if id == nil {
			return DenyUnauthenticated
		}
		if id.Role != req.Role {
			return DenyForbidden
		}
		return Allow
	default:
		if id == nil {
			return DenyUnauthenticated
		}
		return Allow
	}
}

func (r Rule) matches(method string, reqSegments []string) bool {
	if r.Method != AnyMethod && r.Method != method {
		return false
	}
	if len(r.segments) != len(reqSegments) {
		return false
	}
	for i, seg := range r.segments {
		if seg.variable {
			if reqSegments[i] == "" {
				return false
			}
			continue
		}
		if seg.literal != reqSegments[i] {
			return false
		}
	}
	return true
}

func compileRule(r Rule) (Rule, error) {
	segments, err := parsePattern(r.Pattern)
	if err != nil {
		return Rule{}, err
	}

	switch r.Requirement.Kind {
	case KindPublic, KindAuthenticated:
	case KindRole:
		if r.Requirement.Role == "" {
			return Rule{}, fmt.Errorf("%w: "+errRuleRoleMissingFmt, ErrInvalidRule, methodLabel(r.Method), r.Pattern)
		}
		if !r.Requirement.Role.Valid() {
			return Rule{}, fmt.Errorf("%w: "+errRuleRoleUnknownFmt, ErrInvalidRule, methodLabel(r.Method), r.Pattern, r.Requirement.Role)
		}
	default:
		return Rule{}, fmt.Errorf("%w: "+errRuleUnknownRequirementFmt, ErrInvalidRule, methodLabel(r.Method), r.Pattern, r.Requirement.Kind)
	}

	r.Method = strings.ToUpper(r.Method)
	r.segments = segments
	return r, nil
}

func parsePattern(pattern string) ([]segment, error) {
	if pattern == "" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRule, errPatternEmpty)
	}
	if !strings.HasPrefix(pattern, pathSeparator) {
		return nil, fmt.Errorf("%w: "+errPatternNoLeadingSlashFmt, ErrInvalidRule, pattern)
	}

	parts := splitPath(pattern)
	segments := make([]segment, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("%w: "+errPatternEmptySegmentFmt, ErrInvalidRule, pattern)
		}

		open := strings.HasPrefix(part, varOpen)
		closed := strings.HasSuffix(part, varClose)
		switch {
		case open && closed:
			if len(part) == len(varOpen)+len(varClose) {
				return nil, fmt.Errorf("%w: "+errPatternEmptyVariableFmt, ErrInvalidRule, pattern)
			}
			segments = append(segments, segment{variable: true})
		case open || closed:
			return nil, fmt.Errorf("%w: "+errPatternMalformedVarFmt, ErrInvalidRule, pattern, part)
		default:
			segments = append(segments, segment{literal: part})
		}
	}

	return segments, nil
}

// splitPath drops the leading separator only, so "/a/" yields ["a", ""].
func splitPath(path string) []string {
	return strings.Split(strings.TrimPrefix(path, pathSeparator), pathSeparator)
}

func methodLabel(method string) string {
	if method == AnyMethod {
		return "*"
	}
	return method
}
