package entity

import "time"

type User struct {
	ID        int    `gorm:"primaryKey"`
	SubUUID   string `gorm:"uniqueIndex;not null"`
	Name      string `gorm:"not null"`
	Email     string `gorm:"uniqueIndex;not null"`
	Provider  bool   `gorm:"not null;default:false"`
	AvatarID  *int   // References: files(id)
	CreatedAt time.Time
	UpdatedAt time.Time

	Avatar *File `gorm:"foreignKey:AvatarID;references:ID"`
}

type File struct {
	ID        int    `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	Path      string `gorm:"not null;uniqueIndex"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// URL joins the file path to the public base url files are served from.
func (f *File) URL(baseURL string) string {
	if baseURL == "" {
		return "/files/" + f.Path
	}
	if baseURL[len(baseURL)-1] == '/' {
		return baseURL + f.Path
	}
	return baseURL + "/" + f.Path
}
