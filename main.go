// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
)

func main() {
	fmt.Println("🚀 go-quizsync - Offline Quiz Answer Sync")
	fmt.Println("=========================================")
	fmt.Println()
	fmt.Println("go-quizsync keeps completed quiz answers on the device while offline and")
	fmt.Println("delivers them to the submission service once connectivity returns.")
	fmt.Println()

	fmt.Println("📦 Packages:")
	fmt.Println("   localstore - cached quizzes and the pending answer queue")
	fmt.Println("   netmon     - connectivity monitor with change listeners")
	fmt.Println("   quizsync   - sync coordinator, HTTP client and metrics")
	fmt.Println("   quizapi    - submission service (memory or PostgreSQL)")
	fmt.Println("   quizkv     - key-value backends (memory, SQLite, Redis)")
	fmt.Println()

	fmt.Println("📚 Available Examples:")
	fmt.Println()
	fmt.Println("1. 🌐 Submission Server (examples/submit_server/)")
	fmt.Println("   Scores and stores answer sets; optional PostgreSQL and RabbitMQ")
	fmt.Println("   Run: go run ./examples/submit_server")
	fmt.Println()

	fmt.Println("2. 📱 Mobile Quiz Simulator (examples/mobile_quiz/)")
	fmt.Println("   Offline play, reconnect debounce, forced sync and retry exhaustion")
	fmt.Println("   Run: go run ./examples/mobile_quiz -scenario all")
	fmt.Println()
}
