package domain

// Ingredient — позиция справочника ингредиентов.
// Пара (name, measurement_unit) уникальна.
type Ingredient struct {
	ID              int64  `json:"id" db:"id" gorm:"primaryKey"`
	Name            string `json:"name" db:"name" gorm:"size:128;not null;uniqueIndex:unique_ingredient"`
	MeasurementUnit string `json:"measurement_unit" db:"measurement_unit" gorm:"size:64;not null;uniqueIndex:unique_ingredient"`
}

func (Ingredient) TableName() string {
	return "ingredients"
}
