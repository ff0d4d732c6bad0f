package datafile

// Header holds the root attributes shared by every data file kind.
type Header struct {
	ID                  string
	Name                string
	BattleScribeVersion string
	Revision            int
	AuthorName          string
	AuthorContact       string
	AuthorURL           string
}

// GameSystem is the root metadata of a .gst file.
type GameSystem struct {
	Header
}

// Catalogue is the root metadata of a .cat file. GameSystemID and
// GameSystemRevision are empty/zero when the file does not declare them.
type Catalogue struct {
	Header
	GameSystemID       string
	GameSystemRevision int
}

// Roster is the root metadata of a .ros file. Rosters carry no revision and
// older ones carry no id.
type Roster struct {
	ID                  string
	Name                string
	BattleScribeVersion string
	Description         string
	Points              float64
	PointsLimit         float64
	GameSystemID        string
	GameSystemName      string
	GameSystemRevision  int
}

// DataFile is the metadata extracted from any data file.
type DataFile interface {
	Kind() Kind
	DataID() string
	DataName() string
	DataVersion() string
	DataRevision() int
}

func (g *GameSystem) Kind() Kind          { return KindGameSystem }
func (g *GameSystem) DataID() string      { return g.ID }
func (g *GameSystem) DataName() string    { return g.Name }
func (g *GameSystem) DataVersion() string { return g.BattleScribeVersion }
func (g *GameSystem) DataRevision() int   { return g.Revision }

func (c *Catalogue) Kind() Kind          { return KindCatalogue }
func (c *Catalogue) DataID() string      { return c.ID }
func (c *Catalogue) DataName() string    { return c.Name }
func (c *Catalogue) DataVersion() string { return c.BattleScribeVersion }
func (c *Catalogue) DataRevision() int   { return c.Revision }

func (r *Roster) Kind() Kind          { return KindRoster }
func (r *Roster) DataID() string      { return r.ID }
func (r *Roster) DataName() string    { return r.Name }
func (r *Roster) DataVersion() string { return r.BattleScribeVersion }
func (r *Roster) DataRevision() int   { return 0 }

var (
	_ DataFile = (*GameSystem)(nil)
	_ DataFile = (*Catalogue)(nil)
	_ DataFile = (*Roster)(nil)
)
