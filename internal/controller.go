package internal

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/dcrodman/craftmine/internal/bridge"
	"github.com/dcrodman/craftmine/internal/core"
	"github.com/dcrodman/craftmine/internal/core/data"
	"github.com/dcrodman/craftmine/internal/core/debug"
	"github.com/dcrodman/craftmine/internal/core/metrics"
	"github.com/dcrodman/craftmine/internal/game"
	"github.com/dcrodman/craftmine/internal/network"
	"github.com/dcrodman/craftmine/internal/protocol"
	"github.com/dcrodman/craftmine/internal/records"
	"github.com/dcrodman/craftmine/internal/status"
	"github.com/dcrodman/craftmine/internal/world"
)

// Controller is the main entrypoint for craftmine. It's responsible for
// initializing any shared resources (such as database and logging), starting
// the network server and the game loop, and tearing them down in order.
type Controller struct {
	Config *core.Config
	// Optional pre-bound socket for the network server.
	Listener net.Listener
	// Optional gameplay implementation for the game loop.
	World game.World

	logger      *logrus.Logger
	db          *gorm.DB
	debugServer *http.Server
	server      *network.Server
	loop        *game.Loop
}

// Start runs everything until ctx is cancelled and then shuts it all down. It
// only returns early if something fails to initialize.
func (c *Controller) Start(ctx context.Context) error {
	var err error
	// Set up the logger, which will be used by everything else.
	c.logger, err = core.NewLogger(c.Config)
	if err != nil {
		return fmt.Errorf("error initializing logger: %w", err)
	}

	props, err := world.PropertiesFromConfig(c.Config)
	if err != nil {
		return fmt.Errorf("invalid world config: %w", err)
	}

	metrics.RegisterMetrics()
	// Start any debug utilities if we're configured to do so.
	if c.Config.Debugging.Enabled {
		c.debugServer = debug.StartUtilities(c.logger, c.Config.Debugging.PprofPort)
	}

	c.db, err = data.Initialize(c.Config)
	if err != nil {
		return fmt.Errorf("error initializing database: %w", err)
	}
	// Nobody can be online if the server is only just starting.
	if err := data.ResetOnlineUsers(c.db); err != nil {
		c.logger.Warnf("error resetting online users: %v", err)
	}
	store := records.NewDBStore(c.db, props)

	serverStatus, err := c.initStatus(props)
	if err != nil {
		c.closeDatabase()
		return err
	}

	b := bridge.New(c.Config.Network.CommandBuffer)

	// The network and the game loop get separate contexts so that the game
	// loop outlives the network and sees every session end.
	netCtx, cancelNet := context.WithCancel(ctx)
	defer cancelNet()
	gameCtx, cancelGame := context.WithCancel(context.Background())
	defer cancelGame()

	c.loop = &game.Loop{
		Config:  c.Config,
		Logger:  c.logger,
		Bridge:  b,
		Status:  serverStatus,
		Records: store,
		World:   c.World,
	}
	c.loop.Start(gameCtx)

	c.server = &network.Server{
		Config:  c.Config,
		Logger:  c.logger,
		Status:  serverStatus,
		Records: store,
		World:   props,
		Bridge:  b,
	}
	if err := c.server.Start(netCtx, c.Listener); err != nil {
		cancelGame()
		c.loop.Wait()
		c.closeDatabase()
		return fmt.Errorf("error starting network server: %w", err)
	}
	c.logger.Infof("craftmine %s (protocol %d) listening on %v", protocol.VersionName, protocol.Version, c.server.Addr())

	<-ctx.Done()
	c.shutdown(cancelGame)
	return nil
}

func (c *Controller) initStatus(props world.Properties) (*status.Status, error) {
	name := c.Config.Status.Name
	if name == "" {
		name = protocol.VersionName
	}
	snapshot := status.Snapshot{
		Name:            name,
		ProtocolVersion: protocol.Version,
		Max:             int(props.MaxPlayers),
		Description:     c.Config.Status.Description,
	}
	if path := c.Config.Status.FaviconPath; path != "" {
		favicon, err := status.LoadFavicon(path)
		if err != nil {
			return nil, fmt.Errorf("error loading favicon: %w", err)
		}
		snapshot.Favicon = favicon
	}
	return status.New(snapshot), nil
}

// shutdown stops things in dependency order: the network has to be fully
// closed before the game loop stops, and the game loop before the database.
func (c *Controller) shutdown(cancelGame context.CancelFunc) {
	c.logger.Infof("shutting down")

	c.server.Wait()

	cancelGame()
	c.loop.Wait()

	c.closeDatabase()
	if c.debugServer != nil {
		_ = c.debugServer.Close()
	}
	c.logger.Infof("shut down complete")
}

func (c *Controller) closeDatabase() {
	if err := data.Shutdown(c.db); err != nil {
		c.logger.Errorf("error closing database: %v", err)
	}
}
