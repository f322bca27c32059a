package models

// Patient is a person admitted to the ward.
type Patient struct {
	ID           int64  `db:"id" json:"id"`
	Name         string `db:"name" json:"nombre"`
	Cause        string `db:"cause" json:"causa"`
	RegisteredAt string `db:"registered_at" json:"fecha_registro"`
}

// Medication is a drug stocked by the ward.
type Medication struct {
	ID      int64  `db:"id" json:"id"`
	Name    string `db:"name" json:"nombre"`
	Purpose string `db:"purpose" json:"funcion"`
}

// Machine is a piece of ward equipment.
type Machine struct {
	ID     int64  `db:"id" json:"id"`
	Name   string `db:"name" json:"nombre"`
	Kind   string `db:"kind" json:"tipo"`
	Status string `db:"status" json:"estado"`
}
