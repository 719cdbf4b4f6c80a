// Package shutdown provides graceful shutdown handling for
// keymesh-server.
//
// Components register hooks at start-up; when SIGINT or SIGTERM
// arrives the hooks run in reverse registration order under a shared
// grace timeout.
package shutdown
