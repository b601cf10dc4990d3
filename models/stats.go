package models

// VolunteerStats - kumulativna statistika jednog volontera.
// All counters are monotonically non-decreasing; AverageRating is written by an
// external rating service and only read here.
type VolunteerStats struct {
	CompletedTasks  int     `json:"completedTasks" bson:"completedTasks"`
	TotalDeliveries int     `json:"totalDeliveries" bson:"totalDeliveries"`
	MealsDelivered  int     `json:"mealsDelivered" bson:"mealsDelivered"`
	TotalHours      int     `json:"totalHours" bson:"totalHours"`
	ImpactScore     int     `json:"impactScore" bson:"impactScore"`
	AverageRating   float64 `json:"averageRating" bson:"averageRating"`
}

// Add returns the element-wise sum of two stats values. AverageRating is not a
// counter and is never summed.
func (s VolunteerStats) Add(delta VolunteerStats) VolunteerStats {
	return VolunteerStats{
		CompletedTasks:  s.CompletedTasks + delta.CompletedTasks,
		TotalDeliveries: s.TotalDeliveries + delta.TotalDeliveries,
		MealsDelivered:  s.MealsDelivered + delta.MealsDelivered,
		TotalHours:      s.TotalHours + delta.TotalHours,
		ImpactScore:     s.ImpactScore + delta.ImpactScore,
		AverageRating:   s.AverageRating,
	}
}
