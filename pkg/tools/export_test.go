package tools

var Grouped = grouped
