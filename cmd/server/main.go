// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/mysqlstore"
	"github.com/alexedwards/scs/v2"

	"clinica-admin.com.br/internal/access"
	"clinica-admin.com.br/internal/auth"
	"clinica-admin.com.br/internal/config"
	"clinica-admin.com.br/internal/db"
	"clinica-admin.com.br/internal/handlers"
	"clinica-admin.com.br/internal/middleware"
	"clinica-admin.com.br/internal/router"
)

func main() {
	configPath := "configs/config.yaml"
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		configPath = p
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Erro crítico: não foi possível carregar a configuração: %v\n", err)
		os.Exit(1)
	}

	config.InitLogger(cfg.AppEnv)
	slog.Info("Iniciando o painel da clínica...", "app_env", cfg.AppEnv)

	conn, err := db.InitDB(cfg)
	if err != nil {
		slog.Error("Erro crítico: não foi possível inicializar o banco de dados", "error", err)
		os.Exit(1)
	}
	defer conn.Close()
	store := db.NewStore(conn)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.FirstAdmin.Email != "" {
		if err := bootstrapAdministrator(ctx, store, cfg.FirstAdmin); err != nil {
			slog.Error("Não foi possível garantir o administrador inicial", "email", cfg.FirstAdmin.Email, "error", err)
		}
	} else {
		slog.Info("FIRST_ADMIN_EMAIL não definido; nenhum administrador inicial será criado.")
	}

	sessionManager := scs.New()
	sessionManager.Store = mysqlstore.New(conn)
	sessionManager.Lifetime = cfg.SessionLifetime()
	sessionManager.Cookie.Name = cfg.Session.CookieName
	sessionManager.Cookie.HttpOnly = true
	sessionManager.Cookie.Persist = true
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode
	sessionManager.Cookie.Secure = cfg.IsProduction()
	sessionManager.Cookie.Path = "/"
	slog.Info("Gerenciador de sessões inicializado", "store", "mysqlstore", "lifetime", sessionManager.Lifetime, "secure_cookie", sessionManager.Cookie.Secure)

	appHandlers, err := handlers.NewAppHandlers(cfg, sessionManager, store, access.DefaultPolicy)
	if err != nil {
		slog.Error("Erro crítico: não foi possível inicializar os handlers de página", "error", err)
		os.Exit(1)
	}

	loginLimiter := middleware.NewIPRateLimiter(cfg.RateLimit.LoginRPS, cfg.RateLimit.LoginBurst)
	go loginLimiter.Run(ctx, 10*time.Minute)

	rt := router.New(router.Deps{
		Config:       cfg,
		Sessions:     sessionManager,
		App:          appHandlers,
		Users:        store,
		Policy:       access.DefaultPolicy,
		LoginLimiter: loginLimiter,
	})
	rt.Audit()

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           rt,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Servidor ouvindo", "address", fmt.Sprintf("http://localhost%s", addr), "base_url", cfg.BaseURL)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Erro crítico: o servidor HTTP parou", "address", addr, "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		slog.Info("Sinal de parada recebido, encerrando o servidor...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Erro ao encerrar o servidor", "error", err)
		}
	}
	slog.Info("Servidor encerrado.")
}

func bootstrapAdministrator(ctx context.Context, store *db.Store, admin config.FirstAdminConfig) error {
	var hash string
	if admin.Password != "" {
		var err error
		if hash, err = auth.HashPassword(admin.Password); err != nil {
			return fmt.Errorf("erro ao gerar hash da senha inicial: %w", err)
		}
	}
	created, err := store.EnsureAdministrator(ctx, admin.Email, hash)
	if err != nil {
		return err
	}
	if created {
		slog.Info("Administrador inicial criado", "email", admin.Email)
	} else {
		slog.Info("Administrador inicial verificado", "email", admin.Email)
	}
	return nil
}
