package scenario

import (
	"time"

	"github.com/urbansense/smart-city-platform/internal/domain"
)

// Catalog is the built-in demonstration scenario set.
func Catalog() []domain.Scenario {
	return []domain.Scenario{
		{
			ID:          "heatwave",
			Name:        "Heatwave",
			Description: "Sustained high temperatures stress the environment and noise sensors",
			Duration:    10 * time.Minute,
			Modifiers: []domain.SensorModifier{
				{SensorType: domain.SensorEnvironment, Op: domain.OpMultiply, Operand: 1.4},
				{SensorType: domain.SensorNoise, Op: domain.OpMultiply, Operand: 1.2},
				{SensorType: domain.SensorWater, Op: domain.OpMultiply, Operand: 1.3},
			},
			Incidents: []domain.ScheduledIncident{
				{
					Delay:       90 * time.Second,
					Category:    domain.CategoryEnvironmentalHazard,
					Severity:    domain.SeverityHigh,
					Description: "Heat emergency reported in central district",
				},
				{
					Delay:       4 * time.Minute,
					Category:    domain.CategoryWaterAnomaly,
					Severity:    domain.SeverityMedium,
					Description: "Elevated water demand straining supply pressure",
				},
			},
		},
		{
			ID:          "water-main-break",
			Name:        "Water Main Break",
			Description: "Major pipe failure floods surrounding streets",
			Duration:    8 * time.Minute,
			Modifiers: []domain.SensorModifier{
				{SensorType: domain.SensorWater, Op: domain.OpMultiply, Operand: 2.5},
				{SensorType: domain.SensorTraffic, Op: domain.OpMultiply, Operand: 1.5},
			},
			Incidents: []domain.ScheduledIncident{
				{
					Delay:       30 * time.Second,
					Category:    domain.CategoryWaterAnomaly,
					Severity:    domain.SeverityCritical,
					Description: "Water main rupture detected, pressure loss across district",
				},
				{
					Delay:       3 * time.Minute,
					Category:    domain.CategoryTrafficCongestion,
					Severity:    domain.SeverityHigh,
					Description: "Road closures around rupture site backing up traffic",
				},
			},
		},
		{
			ID:          "street-festival",
			Name:        "Street Festival",
			Description: "Large public event drives up waste, noise, and congestion",
			Duration:    15 * time.Minute,
			Modifiers: []domain.SensorModifier{
				{SensorType: domain.SensorWaste, Op: domain.OpMultiply, Operand: 1.5},
				{SensorType: domain.SensorNoise, Op: domain.OpMultiply, Operand: 1.8},
				{SensorType: domain.SensorTraffic, Op: domain.OpMultiply, Operand: 1.6},
			},
			Incidents: []domain.ScheduledIncident{
				{
					Delay:       5 * time.Minute,
					Category:    domain.CategoryWasteOverflow,
					Severity:    domain.SeverityMedium,
					Description: "Festival grounds bins overflowing",
				},
				{
					Delay:       8 * time.Minute,
					Category:    domain.CategoryNoiseComplaint,
					Severity:    domain.SeverityLow,
					Description: "Residents reporting sustained noise from festival stage",
				},
			},
		},
	}
}
