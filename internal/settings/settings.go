package settings

import (
	"encoding/json"
	"strings"

	"github.com/zinal-app/zinal/internal/models"
	"gorm.io/gorm"
)

// SiteName returns the configured site name, falling back to the default.
func SiteName(conn *gorm.DB) string {
	if conn == nil {
		return DefaultSiteName
	}
	var setting models.Setting
	if errFind := conn.Where("key = ?", SiteNameKey).First(&setting).Error; errFind != nil {
		return DefaultSiteName
	}
	var name string
	if errUnmarshal := json.Unmarshal(setting.Value, &name); errUnmarshal != nil {
		return DefaultSiteName
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultSiteName
	}
	return name
}
