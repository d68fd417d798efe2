/*
Copyright © 2025 Sage Wallet contributors.

Released under MIT license.
*/

package profile

// Metadata is the human-readable profile resolved for an identifier.
// DisplayName is never empty for values produced by this module.
type Metadata struct {
	ID          string  `json:"id" msgpack:"id"`
	DisplayName string  `json:"displayName" msgpack:"displayName"`
	AvatarURI   *string `json:"avatarUri" msgpack:"avatarUri"`

	// IsUnknown is true when the directory had no record and the value was synthesized.
	IsUnknown bool `json:"isUnknown" msgpack:"isUnknown"`
}

// NameFunc derives a display name from an identifier. It must be a pure function.
type NameFunc func(id string) string

// Fallback returns synthesized metadata for the identifier.
func Fallback(id string, nameFn NameFunc) Metadata {
	return Metadata{ID: id, DisplayName: nameOrDefault(id, nameFn), IsUnknown: true}
}

// Known returns metadata for a record found in the directory.
// An empty name is replaced by the synthesized one, an empty avatar URI is dropped.
func Known(id, name, avatarURI string, nameFn NameFunc) Metadata {
	m := Metadata{ID: id, DisplayName: name}
	if m.DisplayName == "" {
		m.DisplayName = nameOrDefault(id, nameFn)
	}
	if avatarURI != "" {
		m.AvatarURI = &avatarURI
	}
	return m
}

func nameOrDefault(id string, nameFn NameFunc) string {
	if nameFn == nil {
		nameFn = DefaultNamer.Name
	}
	if name := nameFn(id); name != "" {
		return name
	}
	return UnknownName
}
