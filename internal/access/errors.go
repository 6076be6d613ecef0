package access

import "errors"

var ErrInvalidRule = errors.New("invalid access rule")

const (
	errPatternEmpty              = "pattern must not be empty"
	errPatternNoLeadingSlashFmt  = "pattern %q must start with '/'"
	errPatternEmptySegmentFmt    = "pattern %q contains an empty segment"
	errPatternEmptyVariableFmt   = "pattern %q contains an unnamed placeholder"
	errPatternMalformedVarFmt    = "pattern %q has a malformed placeholder segment %q"
	errRuleRoleMissingFmt        = "rule %s %s requires a role but none is set"
	errRuleRoleUnknownFmt        = "rule %s %s references unknown role %q"
	errRuleUnknownRequirementFmt = "rule %s %s has an unknown requirement kind %d"
	errMustPolicyPanicFmt        = "access.MustPolicy: %v"
)
