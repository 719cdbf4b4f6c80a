package engine

// installHandlers attaches every handler to its table spec. A table
// entry without a handler here would surface as "unknown command" at
// runtime, so the groups below mirror the registration table.
func (s *Server) installHandlers() {
	s.installConnHandlers()
	s.installClientHandlers()
	s.installServerHandlers()
	s.installACLHandlers()
	s.installKeyHandlers()
	s.installStringHandlers()
	s.installListHandlers()
	s.installHashHandlers()
	s.installSetHandlers()
	s.installZSetHandlers()
	s.installStreamHandlers()
	s.installPubSubHandlers()
	s.installTxHandlers()
}
