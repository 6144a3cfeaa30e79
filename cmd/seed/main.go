package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/bimcheck/bimcheck/internal/config"
)

type templateSeed struct {
	category    string
	description string
	weight      int
	maxPoints   float64
	phases      []string
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	email := getenvDefault("SEED_USER_EMAIL", "auditor@bimcheck.local")
	plainPassword := getenvDefault("SEED_USER_PASSWORD", "Auditor1234!")
	name := getenvDefault("SEED_USER_NAME", "Lead Auditor")

	db, err := sql.Open("postgres", cfg.GetDatabaseURL())
	if err != nil {
		log.Fatalf("failed to connect db: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("failed to ping db: %v", err)
	}

	userID, err := seedUser(db, email, plainPassword, name, cfg.Security.BcryptCost)
	if err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded auditor: email=%s id=%s\n", email, userID)

	if err := seedTemplateLibrary(db); err != nil {
		log.Fatalf("failed to seed template library: %v", err)
	}
	fmt.Println("seeded checklist template library")
}

func seedUser(db *sql.DB, email, plainPassword, name string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plainPassword), cost)
	if err != nil {
		return "", err
	}

	now := time.Now()
	query := `
	INSERT INTO users (id, email, password, name, role, created_at, updated_at)
	VALUES ($1, $2, $3, $4, 'auditor', $5, $5)
	ON CONFLICT (email) DO UPDATE SET
	  password = EXCLUDED.password,
	  name = EXCLUDED.name,
	  updated_at = EXCLUDED.updated_at
	RETURNING id
	`

	var id string
	err = db.QueryRow(query, uuid.NewString(), email, string(hash), name, now).Scan(&id)
	return id, err
}

func seedTemplateLibrary(db *sql.DB) error {
	phases := map[string]string{
		"DESIGN":       "Design review",
		"CONSTRUCTION": "Construction follow-up",
		"HANDOVER":     "Handover and as-built",
	}
	phaseIDs := map[string]string{}
	for code, phaseName := range phases {
		id, err := upsert(db,
			`INSERT INTO audit_phases (id, code, name) VALUES ($1, $2, $3)
			 ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name RETURNING id`,
			uuid.NewString(), code, phaseName)
		if err != nil {
			return fmt.Errorf("audit phase %s: %w", code, err)
		}
		phaseIDs[code] = id
	}

	disciplines := map[string]string{
		"ARC": "Architecture",
		"STR": "Structure",
		"MEP": "Mechanical, electrical and plumbing",
	}
	templatesByDiscipline := map[string][]templateSeed{
		"ARC": {
			{"MODEL", "Model follows the agreed federation and naming strategy", 2, 10, []string{"DESIGN", "CONSTRUCTION"}},
			{"MODEL", "Elements carry the LOD required for the current phase", 1, 10, []string{"DESIGN", "CONSTRUCTION", "HANDOVER"}},
			{"COORD", "Clash report against structure reviewed and dispositioned", 3, 10, []string{"DESIGN", "CONSTRUCTION"}},
			{"DATA", "Room and space data complete for area schedules", 1, 5, []string{"DESIGN", "HANDOVER"}},
		},
		"STR": {
			{"MODEL", "Structural elements modelled as load-bearing with correct materials", 2, 10, []string{"DESIGN", "CONSTRUCTION"}},
			{"COORD", "Openings and penetrations coordinated with MEP", 3, 10, []string{"DESIGN", "CONSTRUCTION"}},
			{"DATA", "Rebar and connection data present where required", 1, 5, []string{"CONSTRUCTION", "HANDOVER"}},
		},
		"MEP": {
			{"MODEL", "Systems assigned and connected end to end", 2, 10, []string{"DESIGN", "CONSTRUCTION"}},
			{"COORD", "Service routing clear of structural zones", 3, 10, []string{"DESIGN", "CONSTRUCTION"}},
			{"DATA", "Equipment tagged with asset identifiers for handover", 2, 10, []string{"HANDOVER"}},
		},
	}

	for code, discName := range disciplines {
		discID, err := upsert(db,
			`INSERT INTO disciplines (id, code, name, active) VALUES ($1, $2, $3, TRUE)
			 ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name RETURNING id`,
			uuid.NewString(), code, discName)
		if err != nil {
			return fmt.Errorf("discipline %s: %w", code, err)
		}

		categoryIDs := map[string]string{}
		for order, seed := range templatesByDiscipline[code] {
			catID, ok := categoryIDs[seed.category]
			if !ok {
				catID, err = upsert(db,
					`INSERT INTO categories (id, discipline_id, code, name, display_order)
					 VALUES ($1, $2, $3, $3, $4)
					 ON CONFLICT (discipline_id, code) DO UPDATE SET name = EXCLUDED.name RETURNING id`,
					uuid.NewString(), discID, seed.category, len(categoryIDs)+1)
				if err != nil {
					return fmt.Errorf("category %s/%s: %w", code, seed.category, err)
				}
				categoryIDs[seed.category] = catID
			}

			itemID := uuid.NewString()
			_, err := db.Exec(
				`INSERT INTO template_items (id, discipline_id, category_id, description, weight, max_points, display_order, active)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)`,
				itemID, discID, catID, seed.description, seed.weight, seed.maxPoints, order+1)
			if err != nil {
				return fmt.Errorf("template item %q: %w", seed.description, err)
			}

			for _, phase := range seed.phases {
				_, err := db.Exec(
					`INSERT INTO template_item_phases (template_item_id, audit_phase_id) VALUES ($1, $2)
					 ON CONFLICT DO NOTHING`,
					itemID, phaseIDs[phase])
				if err != nil {
					return fmt.Errorf("template item phase %q/%s: %w", seed.description, phase, err)
				}
			}
		}
	}

	return nil
}

func upsert(db *sql.DB, query string, args ...interface{}) (string, error) {
	var id string
	err := db.QueryRow(query, args...).Scan(&id)
	return id, err
}

func getenvDefault(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
