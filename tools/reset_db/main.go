package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"

	"bump-server/config"
	"bump-server/pkg/db"

	"github.com/go-sql-driver/mysql"
)

// Child tables first
var tables = []string{"meetup", "status", "user_place", "place", "settings", "friend_link", "user"}

func main() {
	yes := flag.Bool("yes", false, "skip the confirmation prompt")
	flag.Parse()

	cfg := config.LoadConfig().Database

	conn, err := sql.Open("mysql", db.DSN(cfg))
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	defer conn.Close()

	if err := conn.Ping(); err != nil {
		log.Fatalf("Database connection test failed: %v", err)
	}

	fmt.Println("Database connected successfully")
	fmt.Printf("Database: %s\n", cfg.Database)

	if !*yes {
		fmt.Printf("\nWARNING: This operation will CLEAR ALL DATA in tables [%s]!\n", strings.Join(tables, ", "))
		fmt.Print("Type 'YES' to confirm: ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "YES" {
			fmt.Println("Operation cancelled")
			return
		}
	}

	// Disable FK checks to avoid constraint issues
	_, _ = conn.Exec("SET FOREIGN_KEY_CHECKS=0")

	for _, table := range tables {
		fmt.Printf("Clearing table %s... ", table)
		if _, err := conn.Exec(fmt.Sprintf("DELETE FROM `%s`", table)); err != nil {
			var myErr *mysql.MySQLError
			// 1146: table does not exist yet (server never migrated)
			if errors.As(err, &myErr) && myErr.Number == 1146 {
				fmt.Println("Skipped (missing)")
				continue
			}
			fmt.Printf("Failed: %v\n", err)
			continue
		}
		fmt.Println("Success")

		if _, err := conn.Exec(fmt.Sprintf("ALTER TABLE `%s` AUTO_INCREMENT = 1", table)); err != nil {
			fmt.Printf("Resetting %s auto-increment failed: %v\n", table, err)
		}
	}

	_, _ = conn.Exec("SET FOREIGN_KEY_CHECKS=1")

	fmt.Println("\nDatabase reset completed!")
	fmt.Println("All table data cleared, table structure preserved")
}
