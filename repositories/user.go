package repositories

// StaticUserDirectory resolves display names from a fixed id -> name map.
// Profile storage is owned by another service; this covers the only need the
// messaging core has for it, naming users inside push notifications.
type StaticUserDirectory struct {
	names map[string]string
}

func NewStaticUserDirectory(names map[string]string) StaticUserDirectory {
	if names == nil {
		names = map[string]string{}
	}
	return StaticUserDirectory{names: names}
}

// DisplayName falls back to the raw id when the user is unknown here.
func (d StaticUserDirectory) DisplayName(userID string) string {
	if name, ok := d.names[userID]; ok {
		return name
	}
	return userID
}
