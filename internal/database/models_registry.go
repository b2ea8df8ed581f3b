package database

import "minifeed/internal/models"

// PersistentModels lists every GORM model backed by a table, in dependency order.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Post{},
		&models.Comment{},
	}
}
