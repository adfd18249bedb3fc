// Command mentord runs the research mentorship daemon: HTTP API over
// the orchestrator, backed by the Anthropic API and a local vector
// index.
//
// Configuration comes from the environment (a .env file is loaded when
// present):
//
//	ANTHROPIC_API_KEY   required
//	MENTOR_ADDR         listen address, default :8080
//	MENTOR_DATA_DIR     chromem persistence dir; empty means in-memory
//	MENTOR_ANON_SALT    required; stable salt for owner hashing
//	MENTOR_NO_GUARDIAN_MODEL  set to disable the Guardian model pass
package main

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/researchinpublic/mentor-go-sdk/agents"
	"github.com/researchinpublic/mentor-go-sdk/guardian"
	"github.com/researchinpublic/mentor-go-sdk/intent"
	"github.com/researchinpublic/mentor-go-sdk/match"
	"github.com/researchinpublic/mentor-go-sdk/memory"
	"github.com/researchinpublic/mentor-go-sdk/memory/store/chromem"
	"github.com/researchinpublic/mentor-go-sdk/orchestrator"
	"github.com/researchinpublic/mentor-go-sdk/provider/anthropic"
	"github.com/researchinpublic/mentor-go-sdk/server"
)

func main() {
	if err := godotenv.Load(); err == nil {
		log.Printf("[MENTORD] Loaded .env")
	}

	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		log.Fatal("[MENTORD] ANTHROPIC_API_KEY is required")
	}
	salt := os.Getenv("MENTOR_ANON_SALT")
	if salt == "" {
		log.Fatal("[MENTORD] MENTOR_ANON_SALT is required and must stay stable across restarts")
	}

	generator := anthropic.New(anthropic.Config{APIKey: apiKey})
	embedder, err := newEmbedder()
	if err != nil {
		log.Fatalf("[MENTORD] Create embedder: %v", err)
	}

	index, err := newIndex(os.Getenv("MENTOR_DATA_DIR"))
	if err != nil {
		log.Fatalf("[MENTORD] Create global index: %v", err)
	}
	defer index.Close()

	store := memory.NewStore(embedder, index, &memory.Config{AnonymizationSalt: salt})
	matcher := match.New(store, nil)

	guardianCfg := *guardian.DefaultConfig
	if os.Getenv("MENTOR_NO_GUARDIAN_MODEL") != "" {
		guardianCfg.ModelPass = false
	}
	scanner, err := guardian.New(generator, &guardianCfg)
	if err != nil {
		log.Fatalf("[MENTORD] Create guardian: %v", err)
	}

	orch, err := orchestrator.New(orchestrator.Deps{
		Classifier:  intent.New(generator, nil),
		Vent:        agents.NewVent(generator),
		Scribe:      agents.NewScribe(generator),
		PISimulator: agents.NewPISimulator(generator),
		Matcher:     matcher,
		Guardian:    scanner,
		Store:       store,
		Embedder:    embedder,
	})
	if err != nil {
		log.Fatalf("[MENTORD] Create orchestrator: %v", err)
	}

	go expireLoop(orch)

	cfg := *server.DefaultConfig
	if addr := os.Getenv("MENTOR_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if err := server.New(orch, &cfg).ListenAndServe(); err != nil {
		log.Fatalf("[MENTORD] Server stopped: %v", err)
	}
}

// expireLoop sweeps idle sessions hourly.
func expireLoop(orch *orchestrator.Orchestrator) {
	for range time.Tick(time.Hour) {
		orch.ExpireSessions()
	}
}

func newIndex(dataDir string) (*chromem.Index, error) {
	if dataDir == "" {
		log.Printf("[MENTORD] No MENTOR_DATA_DIR set, global index is in-memory")
		return chromem.New()
	}
	log.Printf("[MENTORD] Global index persisted under %s", dataDir)
	return chromem.NewPersistent(dataDir)
}
