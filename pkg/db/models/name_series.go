package models

// NameSeries holds the last issued counter for a document name prefix.
type NameSeries struct {
	Prefix  string `gorm:"column:prefix;primaryKey"`
	Counter int64  `gorm:"column:counter;not null"`
}

func (NameSeries) TableName() string {
	return "name_series"
}
