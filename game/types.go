package game

// Cell holds the state of one square.
type Cell struct {
	IsMine        bool // holds a mine
	IsRevealed    bool // already opened
	IsFlagged     bool // flagged by the player
	NeighborCount int  // mines among the 8 surrounding squares
}

// Board is the whole playing field.
type Board struct {
	Width     int      // number of columns
	Height    int      // number of rows
	MineCount int      // mines placed
	Cells     [][]Cell // indexed Cells[y][x]
}

// Point is an (x, y) board coordinate.
type Point struct {
	X, Y int
}
