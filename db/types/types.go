package types

// Migration is an embedded SQL script with an up section and an optional down section
// separated by the sql-migrate markers.
type Migration struct {
	ID  string
	SQL string
}
