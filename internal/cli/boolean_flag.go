package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	booleanFlagTypeName               = "bool"
	booleanFlagTrueLiteral            = "true"
	booleanFlagUnsetLiteral           = ""
	booleanFlagAcceptedValuesListing  = "true, false, yes, no, on, off, 1, 0"
	booleanFlagInvalidValueErrorLabel = "invalid boolean value"
	booleanFlagLongPrefix             = "--"
)

var booleanFlagLiterals = map[string]bool{
	"true":  true,
	"t":     true,
	"1":     true,
	"yes":   true,
	"y":     true,
	"on":    true,
	"false": false,
	"f":     false,
	"0":     false,
	"no":    false,
	"n":     false,
	"off":   false,
}

// parseBooleanLiteral converts a flag argument to a boolean. An empty argument means true.
func parseBooleanLiteral(flagKey string, input string) (bool, error) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		normalized = booleanFlagTrueLiteral
	}
	parsed, ok := booleanFlagLiterals[normalized]
	if !ok {
		return false, fmt.Errorf("%s %q for --%s; accepted values: %s", booleanFlagInvalidValueErrorLabel, input, flagKey, booleanFlagAcceptedValuesListing)
	}
	return parsed, nil
}

// booleanFlagValue is a pflag.Value accepting the literals of booleanFlagLiterals.
// It writes either to a plain bool or, for optional flags, to a *bool that stays
// nil until the flag is given.
type booleanFlagValue struct {
	target         *bool
	optionalTarget **bool
	flagKey        string
}

func (value *booleanFlagValue) Set(input string) error {
	if value == nil || (value.target == nil && value.optionalTarget == nil) {
		return fmt.Errorf("%s %q for flag without target", booleanFlagInvalidValueErrorLabel, input)
	}
	parsed, parseError := parseBooleanLiteral(value.flagKey, input)
	if parseError != nil {
		return parseError
	}
	if value.target != nil {
		*value.target = parsed
	}
	if value.optionalTarget != nil {
		*value.optionalTarget = &parsed
	}
	return nil
}

func (value *booleanFlagValue) String() string {
	switch {
	case value == nil:
		return booleanFlagUnsetLiteral
	case value.target != nil:
		return strconv.FormatBool(*value.target)
	case value.optionalTarget != nil && *value.optionalTarget != nil:
		return strconv.FormatBool(**value.optionalTarget)
	default:
		return booleanFlagUnsetLiteral
	}
}

func (value *booleanFlagValue) Type() string {
	return booleanFlagTypeName
}

// registerBooleanFlag adds a boolean flag that accepts --name, --name=value and --name value.
func registerBooleanFlag(flagSet *pflag.FlagSet, target *bool, name string, defaultValue bool, usage string) {
	if flagSet == nil || target == nil {
		return
	}
	*target = defaultValue
	flagSet.Var(&booleanFlagValue{target: target, flagKey: name}, name, usage)
	if lookup := flagSet.Lookup(name); lookup != nil {
		lookup.DefValue = strconv.FormatBool(defaultValue)
		lookup.NoOptDefVal = booleanFlagTrueLiteral
	}
}

// registerOptionalBooleanFlag adds a boolean flag whose target stays nil unless the flag is given,
// so configuration values are only overridden on request.
func registerOptionalBooleanFlag(flagSet *pflag.FlagSet, target **bool, name string, usage string) {
	if flagSet == nil || target == nil {
		return
	}
	*target = nil
	flagSet.Var(&booleanFlagValue{optionalTarget: target, flagKey: name}, name, usage)
	if lookup := flagSet.Lookup(name); lookup != nil {
		lookup.DefValue = booleanFlagUnsetLiteral
		lookup.NoOptDefVal = booleanFlagTrueLiteral
	}
}

// normalizeBooleanFlagArguments rewrites "--flag value" into "--flag=value" for
// boolean flags of command and its subcommands when value is a boolean literal.
func normalizeBooleanFlagArguments(command *cobra.Command, arguments []string) []string {
	if command == nil || len(arguments) == 0 {
		return arguments
	}
	booleanFlags := map[string]struct{}{}
	collectBooleanFlagNames(command, booleanFlags)
	if len(booleanFlags) == 0 {
		return arguments
	}
	normalized := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		currentArgument := arguments[index]
		if currentArgument == booleanFlagLongPrefix {
			normalized = append(normalized, arguments[index:]...)
			break
		}
		if joined, consumed := joinBooleanArgument(booleanFlags, currentArgument, arguments[index+1:]); consumed {
			normalized = append(normalized, joined)
			index++
			continue
		}
		normalized = append(normalized, currentArgument)
	}
	return normalized
}

// joinBooleanArgument reports whether currentArgument is a boolean flag followed by a literal
// and returns the joined form.
func joinBooleanArgument(booleanFlags map[string]struct{}, currentArgument string, remaining []string) (string, bool) {
	if !strings.HasPrefix(currentArgument, booleanFlagLongPrefix) || strings.Contains(currentArgument, "=") || len(remaining) == 0 {
		return "", false
	}
	flagName := strings.TrimPrefix(currentArgument, booleanFlagLongPrefix)
	if _, exists := booleanFlags[flagName]; !exists {
		return "", false
	}
	nextArgument := remaining[0]
	if strings.HasPrefix(nextArgument, "-") {
		return "", false
	}
	if _, valid := booleanFlagLiterals[strings.ToLower(strings.TrimSpace(nextArgument))]; !valid {
		return "", false
	}
	return fmt.Sprintf("--%s=%s", flagName, nextArgument), true
}

func collectBooleanFlagNames(command *cobra.Command, target map[string]struct{}) {
	if command == nil || target == nil {
		return
	}
	visit := func(flagSet *pflag.FlagSet) {
		if flagSet == nil {
			return
		}
		flagSet.VisitAll(func(flag *pflag.Flag) {
			if flag != nil && flag.Value != nil && flag.Value.Type() == booleanFlagTypeName {
				target[flag.Name] = struct{}{}
			}
		})
	}
	visit(command.PersistentFlags())
	visit(command.Flags())
	for _, child := range command.Commands() {
		collectBooleanFlagNames(child, target)
	}
}
