// Package dataset loads the crime-trial dataset from CSV, XLSX or a Postgres
// table and keeps it in memory, indexed by state and category.
//
// Source headers are trimmed and mapped onto four canonical columns:
//
//	state     <- Area_Name, State
//	year      <- Year
//	category  <- Group_Name, Crime_Group, Category
//	count     <- Trial_of_Violent_Crimes_by_Courts_Total, Total_Crimes, Count
//
// Callers can add or override aliases through Options.Columns. Counts that
// do not parse as numbers, or are negative, are read as 0. Rows with an
// empty state or an unparseable year are skipped. Both are reported in
// Stats.
//
// LoadPostgres reads the same four columns from a table through sqlx and
// lib/pq. Options.Columns renames the selected source columns there.
//
// A Dataset is immutable once loaded and safe for concurrent readers.
package dataset
