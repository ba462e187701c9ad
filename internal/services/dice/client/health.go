package client

// HealthService is the gRPC health service name the dice daemon reports.
const HealthService = "bloodroll.dice"
