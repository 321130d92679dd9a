package main

import (
	stdLog "log"
	"time"

	"github.com/Astemirdum/bookshelf-service/bookshelf/app"
	"github.com/Astemirdum/bookshelf-service/bookshelf/config"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := godotenv.Load(); err != nil {
		stdLog.Println("no .env file, using process environment:", err)
	}
	cfg := config.NewConfig(
		config.WithLogLevel(zapcore.DebugLevel),
		config.WithReadTimeout(10*time.Second),
		config.WithWriteTimeout(time.Minute),
	)

	if err := app.Run(cfg); err != nil {
		stdLog.Fatal("run ", err)
	}
}
