package routes

import (
	"github.com/nestmatch/rental_marketplace/backend/controllers"
	"github.com/nestmatch/rental_marketplace/backend/middleware"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
)

func Routes(router *mux.Router, redisClient *redis.Client) {
	// Auth routes
	router.HandleFunc("/register", controllers.RegisterUser()).Methods("POST")
	router.HandleFunc("/login", controllers.LoginUser()).Methods("POST")

	// Routes that require authentication
	authenticated := router.PathPrefix("/api").Subrouter()
	authenticated.Use(middleware.AuthMiddleware)

	// Property routes
	authenticated.HandleFunc("/properties", controllers.CreateProperty(redisClient)).Methods("POST")
	authenticated.HandleFunc("/properties", controllers.GetAllProperties(redisClient)).Methods("GET")
	authenticated.HandleFunc("/properties/{id}", controllers.UpdateProperty(redisClient)).Methods("PUT")
	authenticated.HandleFunc("/properties/{id}", controllers.DeleteProperty(redisClient)).Methods("DELETE")

	// Preference routes; saving preferences rescores the user
	authenticated.HandleFunc("/preferences", controllers.GetPreferences()).Methods("GET")
	authenticated.HandleFunc("/preferences", controllers.SavePreferences(redisClient)).Methods("PUT")

	// Match score routes
	authenticated.HandleFunc("/matches", controllers.GetMatches(redisClient)).Methods("GET")
	authenticated.HandleFunc("/matches/recompute", controllers.RecomputeMatches(redisClient)).Methods("POST")
	authenticated.HandleFunc("/matches/{propertyID}", controllers.ComputeMatchScore()).Methods("GET")

	// Favorites routes
	authenticated.HandleFunc("/favorites", controllers.AddFavorite()).Methods("POST")
	authenticated.HandleFunc("/favorites", controllers.GetFavorites()).Methods("GET")
	authenticated.HandleFunc("/favorites/{propertyID}", controllers.DeleteFavorite()).Methods("DELETE")
}
