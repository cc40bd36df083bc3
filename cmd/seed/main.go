// Command seed fills the state store with generated workspace data for
// local development and demos.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/lumeo-studio/workspace-api/config"
	"github.com/lumeo-studio/workspace-api/pkg/store"
	"github.com/lumeo-studio/workspace-api/pkg/testdata"
)

func main() {
	managers := flag.Int("managers", 4, "number of manager accounts to generate")
	leads := flag.Int("leads", 40, "number of leads to generate")
	seed := flag.Int64("seed", 1, "random seed")
	force := flag.Bool("force", false, "overwrite a non-empty document")
	flag.Parse()

	cfg := config.Load()

	var adapter store.Adapter
	var err error
	switch cfg.StoreDriver {
	case "postgres":
		adapter, err = store.NewPostgresAdapter(cfg.DatabaseURL)
	case "redis":
		adapter, err = store.NewRedisAdapter(cfg.RedisURL)
	default:
		adapter, err = store.NewSQLiteAdapter(cfg.SQLitePath)
	}
	if err != nil {
		log.Fatalf("❌ Failed to open state store (%s): %v", cfg.StoreDriver, err)
	}
	defer adapter.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	doc, err := adapter.Load(ctx)
	if err != nil {
		log.Fatalf("❌ Failed to load state document: %v", err)
	}
	if len(doc.Data.Leads) > 0 && !*force {
		log.Fatalf("❌ Document already has %d leads; pass -force to overwrite", len(doc.Data.Leads))
	}

	generator := testdata.NewGenerator(testdata.GeneratorConfig{
		Managers:      *managers,
		Leads:         *leads,
		Seed:          *seed,
		BirthdayNotes: 0.25,
	})
	users, data := generator.Document(time.Now().UTC())

	committed, err := adapter.TrySave(ctx, doc.Version, users, data)
	if err != nil {
		log.Fatalf("❌ Failed to save seed document: %v", err)
	}
	if !committed {
		log.Fatalf("❌ Seed lost a concurrent write race; re-run")
	}

	log.Printf("✅ Seeded %d users and %d leads (driver: %s)", len(users), len(data.Leads), cfg.StoreDriver)
}
