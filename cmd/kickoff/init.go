package main

import (
	"fmt"
	"os"
)

func runInit(outputPath string) error {
	if _, err := os.Stat(outputPath); err == nil {
		return fmt.Errorf("%s already exists; remove it first or use -o to write elsewhere", outputPath)
	}

	if err := os.WriteFile(outputPath, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("✓ Created %s\n", outputPath)
	return nil
}

const configTemplate = `# Tournament Configuration
# ========================
# This file defines the groups and calendar used to generate fixtures.

tournament:
  id: summer-cup
  name: Summer Cup

# Season maps matchday numbers onto dates for the exported workbook.
season:
  start_date: "2026-06-06"

  # Matchday 1 is played on start_date, each following matchday this many
  # days later.
  days_between_matchdays: 7

  # A matchday that lands on a blackout date moves to the next free day.
  blackout_dates:
    - date: "2026-07-04"
      reason: "Independence Day"

# Groups and their teams. Every group plays a double round robin: each team
# meets every other team in its group once at home and once away. Team names
# must be unique across all groups (case-insensitive).
groups:
  - id: a
    name: Group A
    teams: [Lions, Tigers, Bears, Wolves]
  - id: b
    name: Group B
    teams: [Eagles, Hawks, Falcons, Owls]
  - id: c
    name: Group C
    teams: [Sharks, Whales, Dolphins, Orcas]
  - id: d
    name: Group D
    teams: [Foxes, Badgers, Otters, Stoats]

# Strategy determines how pairings are generated.
# "double_round_robin" (default) or "single_round_robin".
strategy: double_round_robin

# The knockout stage seeds the top two of exactly four groups into
# quarter-finals, semi-finals and a final.
knockout:
  enabled: true

# Where groups, fixtures, results and the bracket are kept.
# backend: memory | file | sqlite | postgres | firestore
#   file:      path is a directory of JSON documents
#   sqlite:    path is the database file
#   postgres:  dsn, or DATABASE_URL
#   firestore: project_id (or FIRESTORE_PROJECT_ID) and optional
#              credentials_file (or GOOGLE_APPLICATION_CREDENTIALS)
# KICKOFF_STORE and KICKOFF_STORE_PATH override backend and path.
store:
  backend: sqlite
  path: kickoff.db

# HTTP server used by "kickoff serve". KICKOFF_ADDR overrides addr.
server:
  addr: ":8080"
  cors_origins: ["*"]
`
