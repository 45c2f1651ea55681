// Package maps provides a configuration-binding helper: turning a loosely
// typed map into a concrete Go struct, the same role utils/maps.Map2Struct
// plays for component configuration in the teacher engine. No other
// package in this module calls it.
package maps

import "github.com/mitchellh/mapstructure"

// Map2Struct decodes src into dst using weakly-typed input conversion
// (string "30" into an int field, and so on), matching the leniency rule
// chain DSLs need when configuration arrives as JSON-decoded map[string]any.
func Map2Struct(src map[string]any, dst any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           dst,
		TagName:          "json",
	})
	if err != nil {
		return err
	}
	return decoder.Decode(src)
}

// Struct2Map converts src into a map[string]any by round-tripping it
// through mapstructure, for walking an arbitrary configuration value as a
// generic tree.
func Struct2Map(src any) (map[string]any, error) {
	out := map[string]any{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &out,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(src); err != nil {
		return nil, err
	}
	return out, nil
}
