package types

// Client -> Server (ws, JSON)
// RosterToLineup:
//   player_id: string
//   target_index?: number // omit to append
//
// LineupReorder:
//   slot_id: string
//   target_index: number
//
// LineupToSubstitute:
//   slot_id: string
//
// SubstituteToLineup:
//   substitute_id: string
//   target_index?: number
//
// PositionChange:
//   slot_id: string
//   position?: "P" | "C" | "1B" | "2B" | "3B" | "SS" | "LF" | "CF" | "RF"
//           | "DH" | "EH" | "FLEX" | "DP"
//   clear_position?: boolean // true unsets the slot's position
//
// Remove:
//   slot_id: string
//
// Retry: {} // re-arm the save cycle after a persistence failure

// Server -> Client
// StateSnapshot:
//   version: number
//   status: "idle" | "dirty" | "saving" | "error"
//   state:
//     inning: number
//     roster: Player[]
//     available: { [playerId]: boolean }
//     lineup: Slot[]      // batting_order dense 1..N
//     substitutes: { id, player_id }[]
//   conflicts: Position[] // positions held by more than one slot
//   error?: string        // last persistence failure, retryable
//
// Error:
//   error: string // rejected command or bad message
