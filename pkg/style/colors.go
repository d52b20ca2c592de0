package style

var GreenColor = "#16A34A"
var RedColor = "#DC2626"
