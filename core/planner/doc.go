// Package planner assigns an operating mode to every hour of the forecast
// horizon. Hours are visited in descending price order and claim the most
// saving mode whose trigger condition matches and whose hour budget is not
// exhausted. A second pass caps contiguous run lengths per mode, and a third
// consolidates the hourly array into contiguous strategy slots.
package planner
