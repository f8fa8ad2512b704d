package main

import "github.com/AmjedKhaled165/Qareeblak-sub000/internal/migration"

func main() {
	migration.RunMigration()
}
