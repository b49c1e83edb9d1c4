// Package studyplan defines the domain records, repository contracts, and
// error kinds shared by the study planner's persistence, service, and
// transport layers.
package studyplan
