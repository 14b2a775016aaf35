package technician

import (
	"strings"

	"tecnicosrd/models"
)

var catalog = []models.Specialization{
	{Code: "electricista", Name: "Electricista", Icon: "bolt"},
	{Code: "plomero", Name: "Plomero", Icon: "droplet"},
	{Code: "refrigeracion", Name: "Refrigeración y aire acondicionado", Icon: "snowflake"},
	{Code: "mecanico", Name: "Mecánico", Icon: "wrench"},
	{Code: "carpintero", Name: "Carpintero", Icon: "hammer"},
	{Code: "pintor", Name: "Pintor", Icon: "brush"},
	{Code: "cerrajero", Name: "Cerrajero", Icon: "key"},
	{Code: "tecnico-computadoras", Name: "Técnico de computadoras", Icon: "laptop"},
	{Code: "albanil", Name: "Albañil", Icon: "bricks"},
	{Code: "jardinero", Name: "Jardinero", Icon: "leaf"},
}

// Specializations returns the service catalog.
func (s *DefaultTechnicianService) Specializations() []models.Specialization {
	out := make([]models.Specialization, len(catalog))
	copy(out, catalog)
	return out
}

// IsSpecialization reports whether code is in the catalog.
func IsSpecialization(code string) bool {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, c := range catalog {
		if c.Code == code {
			return true
		}
	}
	return false
}
