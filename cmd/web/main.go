package main

import "tradehub_backend/internal/app"

func main() {
	app.Run()
}
