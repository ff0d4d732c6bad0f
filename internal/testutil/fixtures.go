package testutil

import "fmt"

// GameSystemXML returns a minimal game system document. A version older
// than 2.00 still carries the legacy forceTypes element.
func GameSystemXML(id, name string, revision int, version string) []byte {
	return []byte(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<gameSystem id=%q name=%q revision="%d" battleScribeVersion=%q authorName="Tester" xmlns="http://www.battlescribe.net/schema/gameSystemSchema">
  <forceTypes>
    <forceType id="ft-1" name="Patrol"/>
  </forceTypes>
</gameSystem>
`, id, name, revision, version))
}

// CatalogueXML returns a minimal catalogue document linked to gameSystemID.
func CatalogueXML(id, name string, revision int, version, gameSystemID string) []byte {
	return []byte(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<catalogue id=%q name=%q revision="%d" battleScribeVersion=%q gameSystemId=%q gameSystemRevision="1" xmlns="http://www.battlescribe.net/schema/catalogueSchema">
  <entries>
    <entry id="e-1" name="Boyz" book="Codex"/>
  </entries>
</catalogue>
`, id, name, revision, version, gameSystemID))
}

// RosterXML returns a minimal roster document.
func RosterXML(name, gameSystemID string) []byte {
	return []byte(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<roster id="r-1" name=%q battleScribeVersion="2.02" points="500" pointsLimit="1000" gameSystemId=%q gameSystemName="Game" gameSystemRevision="1" xmlns="http://www.battlescribe.net/schema/rosterSchema"/>
`, name, gameSystemID))
}
