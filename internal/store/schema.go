package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	exercisesTable = "available_exercises"
	finishedTable  = "finished_exercises"
)

var (
	// ExercisesColumns holds the columns for the "available_exercises" table.
	ExercisesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "position", Type: field.TypeInt},
		{Name: "name", Type: field.TypeString},
		{Name: "duration", Type: field.TypeInt},
		{Name: "calories", Type: field.TypeFloat64},
	}
	// ExercisesTable holds the schema information for the "available_exercises" table.
	ExercisesTable = &schema.Table{
		Name:       exercisesTable,
		Columns:    ExercisesColumns,
		PrimaryKey: []*schema.Column{ExercisesColumns[0]},
		Indexes: []*schema.Index{
			{Name: "exercise_position", Unique: false, Columns: []*schema.Column{ExercisesColumns[1]}},
		},
	}

	// FinishedColumns holds the columns for the "finished_exercises" table.
	// date_ms is milliseconds since the Unix epoch.
	FinishedColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "exercise_id", Type: field.TypeString},
		{Name: "name", Type: field.TypeString},
		{Name: "duration", Type: field.TypeFloat64},
		{Name: "calories", Type: field.TypeFloat64},
		{Name: "date_ms", Type: field.TypeInt64},
		{Name: "state", Type: field.TypeString},
	}
	// FinishedTable holds the schema information for the "finished_exercises" table.
	FinishedTable = &schema.Table{
		Name:       finishedTable,
		Columns:    FinishedColumns,
		PrimaryKey: []*schema.Column{FinishedColumns[0]},
		Indexes: []*schema.Index{
			{Name: "finished_date", Unique: false, Columns: []*schema.Column{FinishedColumns[5]}},
		},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		ExercisesTable,
		FinishedTable,
	}
)
