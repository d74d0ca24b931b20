package types

// Migration is one embedded SQL migration. SQL holds both directions, the down part first,
// separated by the "-- +migrate Up" annotation.
type Migration struct {
	ID  string
	SQL string
}
