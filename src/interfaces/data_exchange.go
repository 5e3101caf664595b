package interfaces

import "smc-analysis/src/models"

// -----------------------------------------------------------------------------
// IDataExchanger defines the contract for sharing state with connected clients.
// -----------------------------------------------------------------------------

type IDataExchanger interface {

	// -----------------------------------------------------------------------------
	// Broadcast pushes a state update to all connected listeners.
	Broadcast(payload *models.MLatestData)

	// -----------------------------------------------------------------------------
	// UpdateState merges new data into the server state without broadcasting.
	UpdateState(data *models.MLatestData)

	// -----------------------------------------------------------------------------
	// Start the server
	Start() error

	// -----------------------------------------------------------------------------
	// Stop the server gracefully
	Stop() error
}
