package main

import (
	"fmt"
	"log"
	"strconv"

	"github.com/charmbracelet/huh"

	"github.com/jony/paperweek/pkg/config"
	"github.com/jony/paperweek/pkg/llm"
)

// setupCmd guides the user through interactively building their config.json
func setupCmd() {
	fmt.Printf("Starting Paperweek Setup Wizard...\n\n")

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Warning: Failed to load existing configuration (%v). Starting from defaults.\n", err)
		cfg = config.Default()
	}

	dataDir := cfg.DataDir
	chunkSizeStr := strconv.Itoa(cfg.ChunkSize)
	chunkOverlapStr := strconv.Itoa(cfg.ChunkOverlap)
	topNStr := strconv.Itoa(cfg.TopN)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("1. Data Directory").
				Description("Where downloaded PDFs, reports and the run index live.").
				Value(&dataDir),

			huh.NewInput().
				Title("Top N Papers").
				Description("How many trending papers to pick up per week (e.g. 5).").
				Value(&topNStr),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("2. Chunk Size (tokens)").
				Description("Token budget per window sent to the model (e.g. 20000).").
				Value(&chunkSizeStr),

			huh.NewInput().
				Title("Chunk Overlap (tokens)").
				Description("Tokens shared between consecutive windows. Must be smaller than the chunk size.").
				Value(&chunkOverlapStr),
		).Title("Chunking"),
	)

	if err := form.Run(); err != nil {
		log.Fatalf("Form aborted: %v", err)
	}

	cfg.DataDir = dataDir
	if n, err := strconv.Atoi(topNStr); err == nil {
		cfg.TopN = n
	}
	if n, err := strconv.Atoi(chunkSizeStr); err == nil {
		cfg.ChunkSize = n
	}
	if n, err := strconv.Atoi(chunkOverlapStr); err == nil {
		cfg.ChunkOverlap = n
	}

	// Backends are collected one at a time so the user can register several models.
	action := "replace"
	if len(cfg.Backends) > 0 {
		keep := huh.NewForm(huh.NewGroup(
			huh.NewSelect[string]().
				Title(fmt.Sprintf("You already have %d backend(s) configured.", len(cfg.Backends))).
				Options(
					huh.NewOption("Replace them", "replace"),
					huh.NewOption("Keep them and add more", "add"),
					huh.NewOption("Keep them as they are", "keep"),
				).
				Value(&action),
		))
		if err := keep.Run(); err != nil {
			log.Fatalf("Form aborted: %v", err)
		}
	}
	if action == "replace" {
		cfg.Backends = nil
	}

	for action != "keep" {
		backend, more, err := askBackend(len(cfg.Backends) + 1)
		if err != nil {
			log.Fatalf("Form aborted: %v", err)
		}
		cfg.Backends = append(cfg.Backends, backend)
		if !more {
			break
		}
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration invalid: %v", err)
	}

	path := config.Path()
	if err := cfg.Save(path); err != nil {
		log.Fatalf("Failed to save %s: %v", path, err)
	}

	fmt.Printf("\nSetup complete! Configuration saved to %s\n", path)
	fmt.Printf("Run `paperweek run` to summarize this week's papers.\n")
}

func askBackend(ordinal int) (llm.Backend, bool, error) {
	provider := "gemini"
	name := ""
	model := ""
	apiKey := ""
	apiKeyEnv := ""
	baseURL := ""
	temperatureStr := "0.3"
	maxTokensStr := "0"
	addAnother := false

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(fmt.Sprintf("Backend #%d: Provider", ordinal)).
				Options(
					huh.NewOption("Google Gemini", "gemini"),
					huh.NewOption("OpenAI (or compatible endpoint)", "openai"),
					huh.NewOption("Anthropic (Claude)", "anthropic"),
				).
				Value(&provider),

			huh.NewInput().
				Title("Backend Name").
				Description("Label used in report filenames, e.g. 'gemini-flash'.").
				Value(&name),

			huh.NewInput().
				Title("Model Name").
				Description("Examples: 'gemini-2.0-flash', 'gpt-4o-mini', 'claude-sonnet-4-20250514'.").
				Value(&model),

			huh.NewInput().
				Title("API Key").
				Description("Stored in the config file. Leave blank to read it from an environment variable instead.").
				EchoMode(huh.EchoModePassword).
				Value(&apiKey),

			huh.NewInput().
				Title("API Key Environment Variable (Optional)").
				Description("Examples: 'GEMINI_API_KEY', 'OPENAI_API_KEY'.").
				Value(&apiKeyEnv),

			huh.NewInput().
				Title("Custom Base URL (Optional)").
				Description("For OpenAI-compatible servers: https://integrate.api.nvidia.com/v1").
				Value(&baseURL),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Temperature").
				Description("Randomness coefficient from 0.0 to 1.0 (e.g. 0.3).").
				Value(&temperatureStr),

			huh.NewInput().
				Title("Max Output Tokens").
				Description("Maximum tokens generated per call. 0 uses the provider default.").
				Value(&maxTokensStr),

			huh.NewConfirm().
				Title("Add another backend?").
				Value(&addAnother),
		),
	)

	if err := form.Run(); err != nil {
		return llm.Backend{}, false, err
	}

	backend := llm.Backend{
		Name:      name,
		Provider:  provider,
		Model:     model,
		APIKey:    apiKey,
		APIKeyEnv: apiKeyEnv,
		BaseURL:   baseURL,
	}
	if t, err := strconv.ParseFloat(temperatureStr, 64); err == nil {
		backend.Temperature = t
	}
	if mt, err := strconv.Atoi(maxTokensStr); err == nil {
		backend.MaxOutputTokens = mt
	}
	return backend, addAnother, nil
}
