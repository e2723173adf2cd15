package source

// Source is one configured external origin of records. Rows are created by
// the seeder from configuration; the pipeline never mutates them. Enabled is
// flipped only by an administrator.
type Source struct {
	ID      string
	Name    string
	Kind    string
	Enabled bool
}
