package domain

// ReferenceKind identifies one of the deduplicated taxonomies attached to games.
type ReferenceKind string

const (
	KindDeveloper ReferenceKind = "developer"
	KindPublisher ReferenceKind = "publisher"
	KindCategory  ReferenceKind = "category"
	KindGenre     ReferenceKind = "genre"
	KindTag       ReferenceKind = "tag"
	KindLanguage  ReferenceKind = "language"
)

// ReferenceKinds lists every kind in link order.
var ReferenceKinds = []ReferenceKind{
	KindDeveloper,
	KindPublisher,
	KindCategory,
	KindGenre,
	KindTag,
	KindLanguage,
}

var referenceTables = map[ReferenceKind]string{
	KindDeveloper: "developers",
	KindPublisher: "publishers",
	KindCategory:  "categories",
	KindGenre:     "genres",
	KindTag:       "tags",
	KindLanguage:  "languages",
}

// Table returns the entity table, e.g. "developers".
func (k ReferenceKind) Table() string {
	return referenceTables[k]
}

// JoinTable returns the game association table, e.g. "game_developers".
func (k ReferenceKind) JoinTable() string {
	return "game_" + referenceTables[k]
}

// ForeignKey returns the join table column referencing the entity, e.g. "developer_id".
func (k ReferenceKind) ForeignKey() string {
	return string(k) + "_id"
}

// Valid reports whether k is a known kind.
func (k ReferenceKind) Valid() bool {
	_, ok := referenceTables[k]
	return ok
}

// Reference is the common shape of every taxonomy row.
type Reference struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"not null"`
}

type Developer struct {
	ID   uint   `gorm:"primaryKey" json:"-"`
	Name string `gorm:"type:varchar(255);not null;uniqueIndex:idx_developers_name" json:"name"`
}

type Publisher struct {
	ID   uint   `gorm:"primaryKey" json:"-"`
	Name string `gorm:"type:varchar(255);not null;uniqueIndex:idx_publishers_name" json:"name"`
}

type Category struct {
	ID   uint   `gorm:"primaryKey" json:"-"`
	Name string `gorm:"type:varchar(100);not null;uniqueIndex:idx_categories_name" json:"name"`
}

type Genre struct {
	ID   uint   `gorm:"primaryKey" json:"-"`
	Name string `gorm:"type:varchar(100);not null;uniqueIndex:idx_genres_name" json:"name"`
}

type Tag struct {
	ID   uint   `gorm:"primaryKey" json:"-"`
	Name string `gorm:"type:varchar(100);not null;uniqueIndex:idx_tags_name" json:"name"`
}

type Language struct {
	ID   uint   `gorm:"primaryKey" json:"-"`
	Name string `gorm:"type:varchar(100);not null;uniqueIndex:idx_languages_name" json:"name"`
}

func (Developer) TableName() string { return "developers" }
func (Publisher) TableName() string { return "publishers" }
func (Category) TableName() string  { return "categories" }
func (Genre) TableName() string     { return "genres" }
func (Tag) TableName() string       { return "tags" }
func (Language) TableName() string  { return "languages" }
