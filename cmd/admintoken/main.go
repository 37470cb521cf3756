package main

import (
	"flag"
	"fmt"
	"log"

	_ "github.com/joho/godotenv/autoload"

	"github.com/realflow/voice-intake/internal/auth"
	"github.com/realflow/voice-intake/internal/config"
)

func main() {
	subject := flag.String("sub", "operator", "token subject")
	role := flag.String("role", auth.RoleAdmin, "role claim")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	manager := auth.NewJWTManager(cfg.AdminJWTSecret, cfg.AdminTokenTTL)
	if !manager.Enabled() {
		log.Fatalf("ADMIN_JWT_SECRET is not set")
	}

	token, err := manager.GenerateToken(*subject, *role)
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}
	fmt.Println(token)
}
