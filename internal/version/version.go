package version

// Version is the application version reported by the API and the CLI.
const Version = "1.2.0"
