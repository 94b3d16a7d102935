/*
 * client.go, part of mapex.
 *
 * Copyright 2024 Raul Mera <rmeraa{at}academicosdotutadotcl>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */
//In order to use this part of the library you need PyMOL (https://pymol.org)
//running as an XML-RPC server (pymol -R).

package pymol

import (
	"context"
	"net"
	"net/http"
	"net/rpc"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/kolo/xmlrpc"
)

// Config holds the connection parameters for a PyMOL RPC server.
type Config struct {
	Host           string
	Port           int
	ConnectTimeout time.Duration
	CallTimeout    time.Duration //0 means no timeout
}

// DefaultConfig returns the parameters for a PyMOL started with 'pymol -R'
// on the local machine.
func DefaultConfig() Config {
	return Config{
		Host:           "localhost",
		Port:           9123,
		ConnectTimeout: 5 * time.Second,
		CallTimeout:    30 * time.Second,
	}
}

// Addr returns the host:port address of the server.
func (C Config) Addr() string {
	return net.JoinHostPort(C.Host, strconv.Itoa(C.Port))
}

// Dial implements Dialer.
func (C Config) Dial(ctx context.Context) (Viewer, error) {
	c, err := Dial(ctx, C)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Client is a connection to PyMOL's XML-RPC server.
type Client struct {
	rpc  *xmlrpc.Client
	addr string
}

// Dial connects to the PyMOL server and checks that it answers. Any failure
// is returned as an *UnavailableError.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	addr := cfg.Addr()
	//XML-RPC is request/response over HTTP, so reachability is checked
	//explicitly before the first call.
	d := &net.Dialer{Timeout: cfg.ConnectTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &UnavailableError{Addr: addr, Err: err}
	}
	conn.Close()
	transport := &http.Transport{
		DialContext:           d.DialContext,
		ResponseHeaderTimeout: cfg.CallTimeout,
	}
	rc, err := xmlrpc.NewClient("http://"+addr+"/RPC2", transport)
	if err != nil {
		return nil, &UnavailableError{Addr: addr, Err: err}
	}
	c := &Client{rpc: rc, addr: addr}
	if err := c.Ping(ctx); err != nil {
		c.Close()
		return nil, &UnavailableError{Addr: addr, Err: err}
	}
	return c, nil
}

// call runs the remote method, returning early if ctx is done.
func (c *Client) call(ctx context.Context, method string, args ...interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	call := c.rpc.Go(method, args, nil, make(chan *rpc.Call, 1))
	select {
	case <-call.Done:
		if call.Error != nil {
			return errors.Wrapf(call.Error, "Client/%s", method)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ping checks that the server answers.
func (c *Client) Ping(ctx context.Context) error {
	return c.call(ctx, "ping")
}

// LoadMolBlock loads a molecule given as a MOL block in a new object, without
// touching other objects.
func (c *Client) LoadMolBlock(ctx context.Context, molblock, name string) error {
	return c.call(ctx, "loadMolBlock", molblock, name)
}

// Zoom zooms on the object name.
func (c *Client) Zoom(ctx context.Context, name string) error {
	return c.call(ctx, "zoom", name)
}

// ResetCGO deletes the graphics object label.
func (c *Client) ResetCGO(ctx context.Context, label string) error {
	return c.call(ctx, "resetCGO", label)
}

// Sphere adds a sphere to the graphics object label.
func (c *Client) Sphere(ctx context.Context, pos [3]float64, radius float64, color RGB, label string) error {
	return c.call(ctx, "sphere", pos[:], radius, color[:], label, 1)
}

// Do runs a PyMOL command.
func (c *Client) Do(ctx context.Context, command string) error {
	return c.call(ctx, "do", command)
}

// Save writes the current view to path. The format is taken from the extension.
func (c *Client) Save(ctx context.Context, path string) error {
	return c.call(ctx, "save", path)
}

// ShowMolecule implements Viewer.
func (c *Client) ShowMolecule(ctx context.Context, molblock, name string) error {
	if err := c.LoadMolBlock(ctx, molblock, name); err != nil {
		return err
	}
	return c.Zoom(ctx, name)
}

// AddPharmacophore implements Viewer. The previous spheres with the same
// label are removed, and the current view is kept.
func (c *Client) AddPharmacophore(ctx context.Context, points [][3]float64, label string, colors []RGB, radius float64) error {
	errid := "Client/AddPharmacophore"
	if len(colors) != len(points) {
		return errors.Newf("%s: %d colors for %d points", errid, len(colors), len(points))
	}
	if err := c.Do(ctx, "view rdinterface,store"); err != nil {
		return err
	}
	if err := c.ResetCGO(ctx, label); err != nil {
		return err
	}
	for i, p := range points {
		if err := c.Sphere(ctx, p, radius, colors[i], label); err != nil {
			return err
		}
	}
	if err := c.Do(ctx, "enable "+label); err != nil {
		return err
	}
	return c.Do(ctx, "view rdinterface,recall")
}

// SaveImage implements Viewer.
func (c *Client) SaveImage(ctx context.Context, path string) error {
	return c.Save(ctx, path)
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.rpc.Close()
}
