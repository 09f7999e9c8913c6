// Package config loads the CrimeCast configuration.
//
// Values are resolved in increasing order of precedence:
//
//  1. Default()
//  2. A YAML file: $CRIMECAST_CONFIG_FILE, config.yaml or configs/config.yaml
//  3. CRIMECAST_* environment variables
//
// Environment keys follow the struct nesting, for example:
//
//	CRIMECAST_SERVER_PORT=9090
//	CRIMECAST_DATA_SOURCE=/srv/data/crime.xlsx
//	CRIMECAST_FORECAST_DEFAULT_HORIZON=7
//	CRIMECAST_DATA_COLUMNS=Region:state,Offence:category
//
// The merged result is validated with go-playground/validator struct tags.
// Tests use Default(), which needs no environment or files.
package config
