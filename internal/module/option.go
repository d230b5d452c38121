package module

// OptionType identifies the value type of a configuration option.
type OptionType string

// Allowed option types.
const (
	OptionString  OptionType = "string"
	OptionInteger OptionType = "integer"
	OptionFloat   OptionType = "float"
	OptionBool    OptionType = "bool"
)

// ChoicesFunc enumerates the valid values of an option at call time. It is
// the resolved form of an option callback and exists only on fully loaded
// modules; it is never serialized.
type ChoicesFunc func() ([]string, error)

// Option is one configuration item declared by a module.
//
// CallbackName names a function inside the loadable unit that produces the
// option's choice list. Callback is the resolved form of that name; it is
// populated only by a full (non-fast) load. An option with a CallbackName
// forces its module to be fully loaded at discovery time, because the
// registration side effects of the callback cannot be deferred safely.
type Option struct {
	Name         string
	Type         OptionType
	Value        any
	Text         string
	CallbackName string
	Callback     ChoicesFunc
}

// HasCallback reports whether the option carries a registration callback.
func (o Option) HasCallback() bool {
	return o.CallbackName != ""
}
