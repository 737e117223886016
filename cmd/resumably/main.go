package main

import (
	"github.com/sirupsen/logrus"

	"github.com/samthedataman/resumably/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		logrus.Fatalf("application error: %v", err)
	}
}
